package providers

import (
	"context"

	"github.com/Nenad034/olympichub-search/internal/models"
)

// Provider is one upstream inventory source. A call covers a single
// destination; the aggregator fans out across destinations and providers.
// Implementations must honor ctx cancellation and perform no retries.
type Provider interface {
	Name() string
	Search(ctx context.Context, dest models.DestinationRef, req *models.SearchRequest) ([]Offer, error)
}

// kindRouting maps each search kind to the providers that can serve it.
// Mirrors the dashboard's provider mapping: hotels fan out to every hotel
// supplier, the other product families each have a single source.
var kindRouting = map[models.SearchKind][]string{
	models.SearchHotel:    {"opengreece", "tct", "solvex"},
	models.SearchFlight:   {"amadeus"},
	models.SearchPackage:  {"tct"},
	models.SearchTransfer: {"tct"},
	models.SearchTour:     {"tct"},
}

// Registry holds the configured providers and routes them by search kind.
type Registry struct {
	providers []Provider
}

func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// Add registers another provider.
func (r *Registry) Add(p Provider) { r.providers = append(r.providers, p) }

// All returns every registered provider.
func (r *Registry) All() []Provider { return r.providers }

// ForKind returns the providers eligible for a search kind. Providers with
// names outside the routing table are considered hotel suppliers, so a
// registry of custom mocks still routes somewhere useful.
func (r *Registry) ForKind(kind models.SearchKind) []Provider {
	allowed, ok := kindRouting[kind]
	if !ok {
		return nil
	}
	known := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		known[name] = true
	}
	var out []Provider
	for _, p := range r.providers {
		if known[p.Name()] || (kind == models.SearchHotel && !routed(p.Name())) {
			out = append(out, p)
		}
	}
	return out
}

func routed(name string) bool {
	for _, names := range kindRouting {
		for _, n := range names {
			if n == name {
				return true
			}
		}
	}
	return false
}
