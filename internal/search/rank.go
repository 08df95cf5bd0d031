package search

import (
	"sort"

	"github.com/Nenad034/olympichub-search/internal/providers"
)

// BestSellerThreshold is the canonical monthly sales count that marks an
// offer as a best seller. The dashboard used several thresholds in
// different screens; five sales in thirty days is the one kept here.
const BestSellerThreshold = 5

// SortOrder selects how merged offers are ranked for display.
type SortOrder string

const (
	SortSmart     SortOrder = "smart"
	SortPriceAsc  SortOrder = "price_low"
	SortPriceDesc SortOrder = "price_high"
)

// SortByPrice orders offers by ascending price.
func SortByPrice(offers []providers.Offer) {
	sort.SliceStable(offers, func(i, j int) bool { return offers[i].Price < offers[j].Price })
}

// Rank orders offers for display. Smart order puts best sellers first,
// then ascending price within each group.
func Rank(offers []providers.Offer, order SortOrder) {
	switch order {
	case SortPriceAsc:
		SortByPrice(offers)
	case SortPriceDesc:
		sort.SliceStable(offers, func(i, j int) bool { return offers[i].Price > offers[j].Price })
	default:
		sort.SliceStable(offers, func(i, j int) bool {
			bi := offers[i].SalesCount >= BestSellerThreshold
			bj := offers[j].SalesCount >= BestSellerThreshold
			if bi != bj {
				return bi
			}
			return offers[i].Price < offers[j].Price
		})
	}
}
