package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Nenad034/olympichub-search/internal/models"
	"github.com/Nenad034/olympichub-search/internal/obs"
	"github.com/Nenad034/olympichub-search/internal/providers"
)

// Searcher is the provider query layer as seen by the prefetch engine.
type Searcher interface {
	Search(ctx context.Context, req *models.SearchRequest) (*Result, error)
}

// Result carries the raw offers of one logical search together with
// per-query bookkeeping.
type Result struct {
	Offers []providers.Offer `json:"offers"`
	Stats  Stats             `json:"stats"`
}

type Stats struct {
	QueriesTotal     int   `json:"queries_total"`
	QueriesSucceeded int   `json:"queries_succeeded"`
	QueriesFailed    int   `json:"queries_failed"`
	DurationMs       int64 `json:"duration_ms"`
}

// Aggregator fans a request out to every eligible (provider, destination)
// pair and merges what comes back. One failing destination is logged and
// dropped; only when every query fails does the whole search fail. No
// retries happen here: retry policy belongs to the caller.
type Aggregator struct {
	registry *providers.Registry
	timeout  time.Duration
	metrics  *obs.Metrics
	logger   *slog.Logger
}

func NewAggregator(registry *providers.Registry, timeout time.Duration, m *obs.Metrics, logger *slog.Logger) *Aggregator {
	return &Aggregator{registry: registry, timeout: timeout, metrics: m, logger: logger}
}

type queryResult struct {
	provider string
	offers   []providers.Offer
}

func (a *Aggregator) Search(ctx context.Context, req *models.SearchRequest) (*Result, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	eligible := a.registry.ForKind(req.Kind)
	queries := len(eligible) * len(req.Destinations)
	if queries == 0 {
		return nil, ErrProviderUnavailable
	}

	resCh := make(chan queryResult, queries)
	errCh := make(chan struct{}, queries)
	var wg sync.WaitGroup
	for _, p := range eligible {
		for _, d := range req.Destinations {
			wg.Add(1)
			go func(pr providers.Provider, dest models.DestinationRef) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						a.logger.Error("provider panic recovered", "provider", pr.Name(), "panic", r)
						a.metrics.IncProviderFailure(pr.Name())
						select {
						case errCh <- struct{}{}:
						default:
						}
					}
				}()

				qStart := time.Now()
				offers, err := pr.Search(ctx, dest, req)
				a.metrics.ObserveProviderLatency(pr.Name(), time.Since(qStart).Seconds())

				if err != nil {
					a.logger.Warn("destination query failed",
						"provider", pr.Name(),
						"destination", dest.ID,
						"error", err)
					a.metrics.IncProviderFailure(pr.Name())
					select {
					case errCh <- struct{}{}:
					default:
					}
					return
				}
				select {
				case resCh <- queryResult{provider: pr.Name(), offers: offers}:
				case <-ctx.Done():
					// context canceled; drop
				}
			}(p, d)
		}
	}

	go func() {
		wg.Wait()
		close(resCh)
		close(errCh)
	}()

	merged := map[string]providers.Offer{}
	succeeded := 0
	failed := 0
	for resCh != nil || errCh != nil {
		select {
		case qr, ok := <-resCh:
			if !ok {
				resCh = nil
				continue
			}
			succeeded++
			for _, o := range qr.offers {
				// Every offer carries its provider tag downstream.
				if o.Provider == "" {
					o.Provider = qr.provider
				}
				key := o.Provider + "/" + o.ID
				if existing, found := merged[key]; !found || o.Price < existing.Price {
					merged[key] = o
				}
			}
		case _, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			failed++
		case <-ctx.Done():
			// remaining queries count as failed; timeout equals failure
			if remaining := queries - (succeeded + failed); remaining > 0 {
				failed += remaining
			}
			resCh = nil
			errCh = nil
		}
	}

	if succeeded == 0 {
		return nil, ErrProviderUnavailable
	}

	offers := make([]providers.Offer, 0, len(merged))
	for _, o := range merged {
		offers = append(offers, o)
	}
	SortByPrice(offers)

	out := &Result{Offers: offers}
	out.Stats.QueriesTotal = queries
	out.Stats.QueriesSucceeded = succeeded
	out.Stats.QueriesFailed = failed
	out.Stats.DurationMs = time.Since(start).Milliseconds()
	return out, nil
}
