package search

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Nenad034/olympichub-search/internal/mealplan"
	"github.com/Nenad034/olympichub-search/internal/models"
	"github.com/Nenad034/olympichub-search/internal/providers"
)

// ResellerMarkup scales every component price for subagent bookings.
// Applied per room price, rounded to 2 decimals, before summation, to
// match supplier invoicing.
const ResellerMarkup = 1.15

// Pricing is the read-only role context supplied by the session layer.
type Pricing struct {
	IsReseller bool
}

// AllocationResult maps each active allocation index (the original request
// position) to its eligible rooms, cheapest first. Every active index is
// present, possibly with an empty slice.
type AllocationResult map[int][]providers.RoomOffer

// RoomCapacity parses a capacity descriptor into adult and child slots.
// Accepted forms are "N" (N adult slots) and "A+C" (A adult slots plus C
// child slots). An empty descriptor means the supplier already filtered
// rooms by occupancy and carries no slot constraint. Non-empty text that
// fits neither form is rejected.
func RoomCapacity(descriptor string) (adults, children int, ok bool) {
	s := strings.TrimSpace(descriptor)
	if s == "" {
		return 0, 0, true
	}
	parts := strings.SplitN(s, "+", 2)
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || a < 0 {
		return 0, 0, false
	}
	c := 0
	if len(parts) == 2 {
		c, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || c < 0 {
			return 0, 0, false
		}
	}
	return a, c, true
}

// fits is the strict compatibility predicate between a requested room and a
// RoomOffer: adults go in adult slots, children in child slots, neither can
// borrow from the other. Unavailable rooms and unparsable descriptors never
// fit.
func fits(room providers.RoomOffer, alloc models.RoomAllocation) bool {
	if room.Availability == providers.Unavailable {
		return false
	}
	adults, children, ok := RoomCapacity(room.Capacity)
	if !ok {
		return false
	}
	if strings.TrimSpace(room.Capacity) == "" {
		// supplier-side occupancy filtering, trust it
		return true
	}
	return int(alloc.Adults) <= adults && int(alloc.Children) <= children
}

// MatchOffer selects, within one offer, the eligible rooms for each active
// allocation, cheapest first. Rooms from different offers are never mixed.
func MatchOffer(offer providers.Offer, allocations []models.RoomAllocation) AllocationResult {
	res := AllocationResult{}
	for i, alloc := range allocations {
		if !alloc.Active() {
			continue
		}
		rooms := []providers.RoomOffer{}
		for _, room := range offer.Rooms {
			if fits(room, alloc) {
				rooms = append(rooms, room)
			}
		}
		sort.SliceStable(rooms, func(a, b int) bool { return rooms[a].Price < rooms[b].Price })
		res[i] = rooms
	}
	return res
}

// Match merges per-offer matches across all offers into one view per
// allocation index. Used for availability display; aggregate pricing stays
// within a single offer.
func Match(offers []providers.Offer, allocations []models.RoomAllocation) AllocationResult {
	res := AllocationResult{}
	for i, alloc := range allocations {
		if alloc.Active() {
			res[i] = []providers.RoomOffer{}
		}
	}
	for _, offer := range offers {
		for idx, rooms := range MatchOffer(offer, allocations) {
			res[idx] = append(res[idx], rooms...)
		}
	}
	for idx := range res {
		rooms := res[idx]
		sort.SliceStable(rooms, func(a, b int) bool { return rooms[a].Price < rooms[b].Price })
		res[idx] = rooms
	}
	return res
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// AggregatePrice prices the whole requested stay within one offer: the
// minimum eligible room per active allocation, summed. Reseller markup is
// applied to each component and rounded independently before the sum. The
// second return is false when some active allocation has no eligible room
// in this offer, which disqualifies it from whole-stay pricing.
func AggregatePrice(offer providers.Offer, allocations []models.RoomAllocation, pricing Pricing) (float64, bool) {
	matched := MatchOffer(offer, allocations)
	total := 0.0
	priced := false
	for _, rooms := range matched {
		if len(rooms) == 0 {
			return 0, false
		}
		price := rooms[0].Price
		if pricing.IsReseller {
			price = round2(price * ResellerMarkup)
		}
		total += price
		priced = true
	}
	if !priced {
		return 0, false
	}
	return round2(total), true
}

// BudgetMode selects which view of the aggregate a budget cap applies to.
// Both modes read the same aggregate; per-person divides by total headcount.
type BudgetMode string

const (
	BudgetAggregate BudgetMode = "aggregate"
	BudgetPerPerson BudgetMode = "per_person"
)

// WithinBudget evaluates one offer's aggregate price against a cap. Offers
// that cannot price the whole stay never pass.
func WithinBudget(offer providers.Offer, req *models.SearchRequest, pricing Pricing, limit float64, mode BudgetMode) bool {
	total, ok := AggregatePrice(offer, req.Allocations, pricing)
	if !ok {
		return false
	}
	if mode == BudgetPerPerson {
		heads := req.Occupants()
		if heads == 0 {
			return false
		}
		return total/float64(heads) <= limit
	}
	return total <= limit
}

// FilterByMealPlan drops offers whose normalized board basis does not
// satisfy the requested canonical filter. "all" or empty keeps everything.
func FilterByMealPlan(offers []providers.Offer, filter string) []providers.Offer {
	f := strings.ToUpper(strings.TrimSpace(filter))
	if f == "" || f == "ALL" {
		return offers
	}
	out := make([]providers.Offer, 0, len(offers))
	for _, o := range offers {
		if mealplan.Matches(o.MealPlan, f) {
			out = append(out, o)
			continue
		}
		// an offer whose rooms include the requested basis still qualifies
		for _, r := range o.Rooms {
			if mealplan.Matches(r.MealPlan, f) {
				out = append(out, o)
				break
			}
		}
	}
	return out
}
