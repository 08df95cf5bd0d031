package search

import (
	"context"
	"log/slog"

	"github.com/Nenad034/olympichub-search/internal/models"
)

// SalesCounter is the external monthly popularity lookup. Read-only; the
// engine owns no side effects behind it.
type SalesCounter interface {
	MonthlyCount(ctx context.Context, hotelName string) (int, error)
}

// Service is the full search pipeline handed to the prefetch engine:
// validation, provider fan-out, meal-plan filtering, sales-count
// enrichment, and smart ranking. Enrichment runs inside the pipeline so a
// cache entry is display-ready the moment it is stored.
type Service struct {
	agg    Searcher
	sales  SalesCounter
	order  SortOrder
	logger *slog.Logger
}

func NewService(agg Searcher, sales SalesCounter, logger *slog.Logger) *Service {
	return &Service{agg: agg, sales: sales, order: SortSmart, logger: logger}
}

func (s *Service) Search(ctx context.Context, req *models.SearchRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	res, err := s.agg.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	res.Offers = FilterByMealPlan(res.Offers, req.MealPlan)

	if s.sales != nil {
		for i := range res.Offers {
			count, err := s.sales.MonthlyCount(ctx, res.Offers[i].Name)
			if err != nil {
				// popularity is a nice-to-have; the search result is not
				s.logger.Debug("sales count lookup failed", "hotel", res.Offers[i].Name, "error", err)
				continue
			}
			res.Offers[i].SalesCount = count
		}
	}

	Rank(res.Offers, s.order)
	return res, nil
}
