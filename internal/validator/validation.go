package validator

import (
	"errors"
	"strings"
	"time"
)

// ValidateNationality normalizes a two-letter ISO country code.
func ValidateNationality(s string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(s))
	if len(c) != 2 {
		return "", errors.New("nationality must be a two-letter country code")
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", errors.New("nationality must be a two-letter country code")
		}
	}
	return c, nil
}

// ValidateDate parses a YYYY-MM-DD calendar date.
func ValidateDate(dateStr string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, errors.New("invalid date, expected YYYY-MM-DD")
	}
	return t, nil
}
