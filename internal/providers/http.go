package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Nenad034/olympichub-search/internal/models"
)

// HTTPProvider queries a JSON inventory endpoint. One call covers one
// destination; the response body goes through the adapter so only typed
// Offers leave this package.
type HTTPProvider struct {
	name       string
	baseURL    string
	httpClient *http.Client
}

func NewHTTPProvider(name, baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:    name,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *HTTPProvider) Name() string { return p.name }

func (p *HTTPProvider) Search(ctx context.Context, dest models.DestinationRef, req *models.SearchRequest) ([]Offer, error) {
	u, err := url.Parse(p.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	q := u.Query()
	q.Set("destination", dest.ID)
	q.Set("destination_kind", string(dest.Kind))
	q.Set("checkin", req.CheckIn.Format("2006-01-02"))
	q.Set("checkout", req.CheckOut.Format("2006-01-02"))
	q.Set("nationality", req.Nationality)
	for _, ia := range req.ActiveAllocations() {
		room := strconv.FormatUint(uint64(ia.Alloc.Adults), 10)
		for _, age := range ia.Alloc.ChildrenAges {
			room += "," + strconv.FormatUint(uint64(age), 10)
		}
		q.Add("room", room)
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("provider %s returned status %d: %s", p.name, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provider %s: read body: %w", p.name, err)
	}
	return DecodeOffers(p.name, body)
}
