package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Nenad034/olympichub-search/internal/validator"
)

// SearchKind selects which product family a search targets.
type SearchKind string

const (
	SearchHotel    SearchKind = "hotel"
	SearchFlight   SearchKind = "flight"
	SearchPackage  SearchKind = "package"
	SearchTransfer SearchKind = "transfer"
	SearchTour     SearchKind = "tour"
)

// MaxDestinations bounds how many destinations one search may combine.
const MaxDestinations = 3

// ErrInvalidRequest marks a request that fails validation. Such requests
// never reach the provider layer.
var ErrInvalidRequest = errors.New("invalid search request")

// SearchRequest is the normalized input of one logical search.
// Destination order is insignificant for caching; allocation order is
// significant because the allocation index is the matching key.
type SearchRequest struct {
	Destinations []DestinationRef `json:"destinations"`
	CheckIn      time.Time        `json:"check_in"`
	CheckOut     time.Time        `json:"check_out"`
	Allocations  []RoomAllocation `json:"allocations"`
	MealPlan     string           `json:"meal_plan,omitempty"` // canonical code or "all"
	Nationality  string           `json:"nationality"`
	Kind         SearchKind       `json:"kind"`
}

// ActiveAllocations returns the allocations with adults > 0, each paired
// with its original index. Deactivating room i must not shift room i+1.
func (r *SearchRequest) ActiveAllocations() []IndexedAllocation {
	out := make([]IndexedAllocation, 0, len(r.Allocations))
	for i, a := range r.Allocations {
		if a.Active() {
			out = append(out, IndexedAllocation{Index: i, Alloc: a})
		}
	}
	return out
}

// Occupants is the total headcount across all active allocations.
func (r *SearchRequest) Occupants() uint {
	var n uint
	for _, a := range r.Allocations {
		if a.Active() {
			n += a.Occupants()
		}
	}
	return n
}

// Nights is the stay length in whole days.
func (r *SearchRequest) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// Validate checks the request against the engine's contracts. All failures
// are collected and wrapped in ErrInvalidRequest.
func (r *SearchRequest) Validate() error {
	var errs []string

	if len(r.Destinations) == 0 {
		errs = append(errs, "at least one destination required")
	}
	if len(r.Destinations) > MaxDestinations {
		errs = append(errs, fmt.Sprintf("at most %d destinations allowed", MaxDestinations))
	}
	for i, d := range r.Destinations {
		if strings.TrimSpace(d.ID) == "" {
			errs = append(errs, fmt.Sprintf("destination %d has empty id", i))
		}
		switch d.Kind {
		case KindCountry, KindCity, KindHotel:
		default:
			errs = append(errs, fmt.Sprintf("destination %d has unknown kind %q", i, d.Kind))
		}
	}

	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		errs = append(errs, "check-in and check-out are required")
	} else if !r.CheckOut.After(r.CheckIn) {
		errs = append(errs, "check-out must be after check-in")
	}

	active := 0
	for i, a := range r.Allocations {
		if len(a.ChildrenAges) != int(a.Children) {
			errs = append(errs, fmt.Sprintf("room %d: ages count %d does not match children %d", i, len(a.ChildrenAges), a.Children))
		}
		if a.Adults > MaxAdults {
			errs = append(errs, fmt.Sprintf("room %d: too many adults", i))
		}
		if a.Children > MaxChildren {
			errs = append(errs, fmt.Sprintf("room %d: too many children", i))
		}
		for _, age := range a.ChildrenAges {
			if age > MaxChildAge {
				errs = append(errs, fmt.Sprintf("room %d: child age %d out of range", i, age))
			}
		}
		if a.Active() {
			active++
		}
	}
	if active == 0 {
		errs = append(errs, "at least one room with adults required")
	}

	if _, err := validator.ValidateNationality(r.Nationality); err != nil {
		errs = append(errs, err.Error())
	}

	switch r.Kind {
	case SearchHotel, SearchFlight, SearchPackage, SearchTransfer, SearchTour:
	default:
		errs = append(errs, fmt.Sprintf("unknown search kind %q", r.Kind))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(errs, ", "))
	}
	return nil
}
