package http

import (
	"fmt"

	"github.com/Nenad034/olympichub-search/internal/models"
	"github.com/Nenad034/olympichub-search/internal/providers"
	"github.com/Nenad034/olympichub-search/internal/search"
	"github.com/Nenad034/olympichub-search/internal/validator"
)

// searchPayload is the wire form of a search request. Dates travel as
// YYYY-MM-DD strings; everything else maps directly onto the model.
type searchPayload struct {
	Destinations []models.DestinationRef `json:"destinations"`
	CheckIn      string                  `json:"check_in"`
	CheckOut     string                  `json:"check_out"`
	Allocations  []models.RoomAllocation `json:"allocations"`
	MealPlan     string                  `json:"meal_plan"`
	Nationality  string                  `json:"nationality"`
	Kind         models.SearchKind       `json:"kind"`
	Reseller     bool                    `json:"reseller"`
}

func (p *searchPayload) toRequest() (*models.SearchRequest, error) {
	checkIn, err := validator.ValidateDate(p.CheckIn)
	if err != nil {
		return nil, fmt.Errorf("check_in: %w", err)
	}
	checkOut, err := validator.ValidateDate(p.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("check_out: %w", err)
	}
	kind := p.Kind
	if kind == "" {
		kind = models.SearchHotel
	}
	return &models.SearchRequest{
		Destinations: p.Destinations,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Allocations:  p.Allocations,
		MealPlan:     p.MealPlan,
		Nationality:  p.Nationality,
		Kind:         kind,
	}, nil
}

// offerView decorates an offer with its whole-stay aggregate for the
// requested allocations; offers that cannot host every room stay listed for
// partial availability but carry no total.
type offerView struct {
	providers.Offer
	TotalPrice *float64 `json:"total_price,omitempty"`
	Bookable   bool     `json:"bookable"`
}

func buildOfferViews(res *search.Result, req *models.SearchRequest, pricing search.Pricing) []offerView {
	views := make([]offerView, 0, len(res.Offers))
	for _, o := range res.Offers {
		v := offerView{Offer: o}
		if total, ok := search.AggregatePrice(o, req.Allocations, pricing); ok {
			t := total
			v.TotalPrice = &t
			v.Bookable = o.Availability != providers.Unavailable
		}
		views = append(views, v)
	}
	return views
}
