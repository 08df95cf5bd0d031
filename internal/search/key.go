package search

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Nenad034/olympichub-search/internal/models"
)

// BuildKey serializes a request into its canonical cache key. Two requests
// that would hit upstream identically produce the same key; any parameter
// that can change upstream results changes the key. Pure and total: no
// clock, no network.
//
// Destination order is irrelevant (sorted by kind then id). Allocation
// order is preserved, and inert rooms serialize as "0" because the room
// count itself can move upstream pricing tiers.
func BuildKey(req *models.SearchRequest) string {
	dests := make([]string, 0, len(req.Destinations))
	for _, d := range req.Destinations {
		dests = append(dests, string(d.Kind)+":"+d.ID)
	}
	sort.Strings(dests)

	allocs := make([]string, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		allocs = append(allocs, encodeAllocation(a))
	}

	parts := []string{
		strings.Join(dests, ","),
		req.CheckIn.Format("2006-01-02"),
		req.CheckOut.Format("2006-01-02"),
		strings.Join(allocs, ";"),
		strings.ToUpper(strings.TrimSpace(req.MealPlan)),
		strings.ToUpper(strings.TrimSpace(req.Nationality)),
		string(req.Kind),
	}
	return strings.Join(parts, "|")
}

// encodeAllocation renders one room as "adults" or "adults+age,age,...".
// The ages list length equals the child count, so children need no separate
// field.
func encodeAllocation(a models.RoomAllocation) string {
	if !a.Active() {
		return "0"
	}
	s := strconv.FormatUint(uint64(a.Adults), 10)
	if len(a.ChildrenAges) > 0 {
		ages := make([]string, len(a.ChildrenAges))
		for i, age := range a.ChildrenAges {
			ages[i] = strconv.FormatUint(uint64(age), 10)
		}
		s += "+" + strings.Join(ages, ",")
	}
	return s
}
