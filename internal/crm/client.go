// Package crm reads reservation statistics from the agency's CRM. The
// search core only consumes the monthly sales count per accommodation as a
// ranking signal; it owns no reservation state.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Window is the lookback period for the popularity counter.
const Window = 30 * 24 * time.Hour

// Client calls the reservations read API. Lookups are retried with
// exponential backoff because the CRM is a best-effort side channel, unlike
// the provider layer where retries are the caller's policy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 3,
	}
}

// MonthlyCount returns how many reservations the named accommodation had in
// the last 30 days.
func (c *Client) MonthlyCount(ctx context.Context, hotelName string) (int, error) {
	u, err := url.Parse(c.baseURL + "/reservations/count")
	if err != nil {
		return 0, fmt.Errorf("invalid CRM base URL: %w", err)
	}
	q := u.Query()
	q.Set("accommodation", hotelName)
	q.Set("days", "30")
	u.RawQuery = q.Encode()

	var count int
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			count = 0
			return nil
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("crm returned status %d", resp.StatusCode)
		}

		var body struct {
			Count int `json:"count"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return backoff.Permanent(fmt.Errorf("decode count: %w", err))
		}
		count = body.Count
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return 0, err
	}
	return count, nil
}
