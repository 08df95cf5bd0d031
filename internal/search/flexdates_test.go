package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExpandDatesFullWindow(t *testing.T) {
	center := day(2025, 6, 15)
	today := day(2025, 6, 1)

	dates := ExpandDates(center, 3, today)
	require.Len(t, dates, 7)
	assert.Equal(t, day(2025, 6, 12), dates[0])
	assert.Equal(t, day(2025, 6, 18), dates[6])
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i].After(dates[i-1]), "dates must ascend")
	}
}

func TestExpandDatesDropsPast(t *testing.T) {
	center := day(2025, 6, 15)
	today := day(2025, 6, 14)

	dates := ExpandDates(center, 3, today)
	require.Len(t, dates, 5)
	assert.Equal(t, today, dates[0], "today itself stays in the window")
	assert.Equal(t, day(2025, 6, 18), dates[len(dates)-1])
}

func TestExpandDatesZeroAndNegativeRange(t *testing.T) {
	center := day(2025, 6, 15)
	today := day(2025, 6, 1)

	assert.Equal(t, []time.Time{center}, ExpandDates(center, 0, today))
	assert.Equal(t, []time.Time{center}, ExpandDates(center, -2, today))
}

func TestBuildDateTableMarksAllCheapestTies(t *testing.T) {
	dates := []time.Time{day(2025, 6, 12), day(2025, 6, 13), day(2025, 6, 14), day(2025, 6, 15)}
	prices := map[int]float64{12: 420, 13: 380, 14: 380, 15: 500}

	table := BuildDateTable(context.Background(), dates, func(_ context.Context, ci time.Time) (bool, float64, error) {
		return true, prices[ci.Day()], nil
	})

	require.Len(t, table, 4)
	assert.False(t, table[0].Cheapest)
	assert.True(t, table[1].Cheapest, "both minimum-price dates carry the flag")
	assert.True(t, table[2].Cheapest)
	assert.False(t, table[3].Cheapest)
	require.NotNil(t, table[1].Price)
	assert.Equal(t, 380.0, *table[1].Price)
}

func TestBuildDateTableProbeErrorIsUnavailable(t *testing.T) {
	dates := []time.Time{day(2025, 6, 12), day(2025, 6, 13)}

	table := BuildDateTable(context.Background(), dates, func(_ context.Context, ci time.Time) (bool, float64, error) {
		if ci.Day() == 12 {
			return false, 0, errors.New("upstream timeout")
		}
		return true, 300, nil
	})

	require.Len(t, table, 2)
	assert.False(t, table[0].Available)
	assert.Nil(t, table[0].Price)
	assert.True(t, table[1].Available)
	assert.True(t, table[1].Cheapest)
}

func TestBuildDateTableAllUnavailable(t *testing.T) {
	dates := []time.Time{day(2025, 6, 12), day(2025, 6, 13)}

	table := BuildDateTable(context.Background(), dates, func(context.Context, time.Time) (bool, float64, error) {
		return false, 0, nil
	})

	for _, opt := range table {
		assert.False(t, opt.Available)
		assert.False(t, opt.Cheapest)
		assert.Nil(t, opt.Price)
	}
}
