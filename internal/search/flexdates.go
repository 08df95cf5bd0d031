package search

import (
	"context"
	"time"
)

// ExpandDates returns the candidate check-in dates around center, from
// center-rng through center+rng inclusive, strictly ascending. Dates before
// today are silently dropped, never errored.
func ExpandDates(center time.Time, rng int, today time.Time) []time.Time {
	if rng < 0 {
		rng = 0
	}
	center = center.Truncate(24 * time.Hour)
	today = today.Truncate(24 * time.Hour)

	dates := make([]time.Time, 0, 2*rng+1)
	for i := -rng; i <= rng; i++ {
		d := center.AddDate(0, 0, i)
		if d.Before(today) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// DateOption is one row of the flexible-date table.
type DateOption struct {
	Date      time.Time `json:"date"`
	Available bool      `json:"available"`
	Price     *float64  `json:"price,omitempty"`
	Cheapest  bool      `json:"cheapest"`
}

// DateProbe checks availability and best whole-stay price for one check-in
// date, typically by re-running the aggregator and price aggregation with
// shifted dates.
type DateProbe func(ctx context.Context, checkIn time.Time) (available bool, price float64, err error)

// BuildDateTable probes each candidate date and marks the cheapest
// available ones. Ties all get the flag; a probe error marks its date
// unavailable without failing the table.
func BuildDateTable(ctx context.Context, dates []time.Time, probe DateProbe) []DateOption {
	out := make([]DateOption, 0, len(dates))
	min := 0.0
	found := false
	for _, d := range dates {
		opt := DateOption{Date: d}
		available, price, err := probe(ctx, d)
		if err == nil && available {
			opt.Available = true
			p := price
			opt.Price = &p
			if !found || price < min {
				min = price
				found = true
			}
		}
		out = append(out, opt)
	}
	if found {
		for i := range out {
			if out[i].Available && out[i].Price != nil && *out[i].Price == min {
				out[i].Cheapest = true
			}
		}
	}
	return out
}
