package providers

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/Nenad034/olympichub-search/internal/models"
)

// MockProvider simulates an inventory supplier with variable latency and a
// configurable failure rate. Used by cmd/searchcli and local development.
type MockProvider struct {
	name       string
	avgLatency float64
	failRate   float64
	rng        *rand.Rand
}

func NewMockProvider(name string, avgLatency, failRate float64, seedOffset int64) *MockProvider {
	seed := time.Now().UnixNano() + seedOffset
	return &MockProvider{name: name, avgLatency: avgLatency, failRate: failRate, rng: rand.New(rand.NewSource(seed))}
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) Search(ctx context.Context, dest models.DestinationRef, req *models.SearchRequest) ([]Offer, error) {
	select {
	case <-time.After(sampleLatencyFromRng(m.rng, m.avgLatency)):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if shouldFailFromRng(m.rng, m.failRate) {
		return nil, errors.New("provider error (simulated)")
	}

	jitter := func(base float64) float64 { return base + float64(m.rng.Intn(30)) }
	nights := float64(req.Nights())
	if nights < 1 {
		nights = 1
	}

	offers := []Offer{
		{
			ID: "H123", Provider: m.name, Name: "Hotel Atlas", Stars: 4,
			Location: dest.Name, MealPlan: "BB", Currency: "EUR",
			Price: jitter(129.90) * nights, Availability: Available,
			Rooms: []RoomOffer{
				{Name: "Standard Double", MealPlan: "BB", Capacity: "2", Price: jitter(129.90) * nights, Availability: Available},
				{Name: "Family Room", MealPlan: "BB", Capacity: "2+2", Price: jitter(189.00) * nights, Availability: Available},
			},
		},
		{
			ID: "H234", Provider: m.name, Name: "Riad Sunset", Stars: 3,
			Location: dest.Name, MealPlan: "Polupansion", Currency: "EUR",
			Price: jitter(99.50) * nights, Availability: Available,
			Rooms: []RoomOffer{
				{Name: "Twin Room", MealPlan: "Polupansion", Capacity: "2", Price: jitter(99.50) * nights, Availability: Available},
				{Name: "Triple Room", MealPlan: "Polupansion", Capacity: "3", Price: jitter(139.00) * nights, Availability: Available},
			},
		},
		{
			ID: "H345", Provider: m.name, Name: "Kasbah Pearl", Stars: 5,
			Location: dest.Name, MealPlan: "Ultra All Inclusive", Currency: "EUR",
			Price: jitter(232.00) * nights, Availability: OnRequest,
			Rooms: []RoomOffer{
				{Name: "Suite", MealPlan: "Ultra All Inclusive", Capacity: "2+2", Price: jitter(232.00) * nights, Availability: OnRequest},
			},
		},
	}
	return offers, nil
}

func sampleLatencyFromRng(rng *rand.Rand, avg float64) time.Duration {
	ms := float64(50) + rng.ExpFloat64()*avg*200.0
	return time.Duration(ms) * time.Millisecond
}

func shouldFailFromRng(rng *rand.Rand, rate float64) bool {
	return rng.Float64() < rate
}
