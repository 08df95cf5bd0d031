package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nenad034/olympichub-search/internal/models"
	"github.com/Nenad034/olympichub-search/internal/obs"
	"github.com/Nenad034/olympichub-search/internal/providers"
	"github.com/Nenad034/olympichub-search/internal/search"
)

type stubSearcher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubSearcher) Search(ctx context.Context, req *models.SearchRequest) (*search.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &search.Result{Offers: []providers.Offer{{
		ID: "h1", Provider: "stub", Name: "Hotel Flora", Price: 300, Currency: "EUR",
		Availability: providers.Available,
		Rooms: []providers.RoomOffer{
			{Name: "Double", Capacity: "2", Price: 300, Availability: providers.Available},
		},
	}}}, nil
}

func (s *stubSearcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type allowAll struct{}

func (allowAll) Allow(string) bool { return true }

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func newTestRouter(s search.Searcher, rl search.RateLimiter) (*chi.Mux, *Handler) {
	m := obs.NewMetrics(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	newEngine := func() *search.Engine {
		return search.NewEngine(s, 10*time.Millisecond, m, logger)
	}
	h := NewHandler(s, newEngine, rl, m)

	r := chi.NewRouter()
	r.Post("/search", h.Search)
	r.Post("/flexdates", h.FlexDates)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Post("/{id}/schedule", h.Schedule)
		r.Post("/{id}/search", h.SessionSearch)
		r.Delete("/{id}", h.DeleteSession)
	})
	r.Get("/healthz", h.Healthz)
	return r, h
}

func validBody(adults uint) []byte {
	body := map[string]any{
		"destinations": []map[string]string{{"id": "9", "name": "Parga", "kind": "city"}},
		"check_in":     "2025-07-01",
		"check_out":    "2025-07-08",
		"allocations":  []map[string]any{{"adults": adults, "children": 0, "children_ages": []int{}}},
		"nationality":  "RS",
		"kind":         "hotel",
	}
	b, _ := json.Marshal(body)
	return b
}

func doJSON(t *testing.T, router http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "10.0.0.1:4567"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSearchEndpoint(t *testing.T) {
	ss := &stubSearcher{}
	router, _ := newTestRouter(ss, allowAll{})

	rec := doJSON(t, router, http.MethodPost, "/search", validBody(2))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Key      string `json:"key"`
		CacheHit bool   `json:"cache_hit"`
		Offers   []struct {
			ID         string   `json:"id"`
			TotalPrice *float64 `json:"total_price"`
			Bookable   bool     `json:"bookable"`
		} `json:"offers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out.Key)
	assert.False(t, out.CacheHit)
	require.Len(t, out.Offers, 1)
	require.NotNil(t, out.Offers[0].TotalPrice)
	assert.Equal(t, 300.0, *out.Offers[0].TotalPrice)
	assert.True(t, out.Offers[0].Bookable)
}

func TestSearchEndpointValidation(t *testing.T) {
	router, _ := newTestRouter(&stubSearcher{}, allowAll{})

	cases := []struct {
		name string
		body []byte
	}{
		{"malformed json", []byte(`{`)},
		{"bad date", []byte(`{"destinations":[{"id":"9","kind":"city"}],"check_in":"01.07.2025","check_out":"2025-07-08","allocations":[{"adults":2}],"nationality":"RS"}`)},
		{"no destinations", []byte(`{"destinations":[],"check_in":"2025-07-01","check_out":"2025-07-08","allocations":[{"adults":2}],"nationality":"RS"}`)},
		{"no active rooms", []byte(`{"destinations":[{"id":"9","kind":"city"}],"check_in":"2025-07-01","check_out":"2025-07-08","allocations":[{"adults":0}],"nationality":"RS"}`)},
		{"bad nationality", []byte(`{"destinations":[{"id":"9","kind":"city"}],"check_in":"2025-07-01","check_out":"2025-07-08","allocations":[{"adults":2}],"nationality":"Serbia"}`)},
		{"checkout before checkin", []byte(`{"destinations":[{"id":"9","kind":"city"}],"check_in":"2025-07-08","check_out":"2025-07-01","allocations":[{"adults":2}],"nationality":"RS"}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/search", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestSearchEndpointProviderFailure(t *testing.T) {
	ss := &stubSearcher{err: fmt.Errorf("all queries failed: %w", search.ErrProviderUnavailable)}
	router, _ := newTestRouter(ss, allowAll{})

	rec := doJSON(t, router, http.MethodPost, "/search", validBody(2))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSearchEndpointRateLimited(t *testing.T) {
	router, _ := newTestRouter(&stubSearcher{}, denyAll{})

	rec := doJSON(t, router, http.MethodPost, "/search", validBody(2))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	ss := &stubSearcher{}
	router, _ := newTestRouter(ss, allowAll{})

	rec := doJSON(t, router, http.MethodPost, "/sessions/", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.SessionID)
	base := "/sessions/" + created.SessionID

	// schedule a prefetch and give the debounce time to fire
	rec = doJSON(t, router, http.MethodPost, base+"/schedule", validBody(2))
	require.Equal(t, http.StatusAccepted, rec.Code)

	deadline := time.Now().Add(2 * time.Second)
	for ss.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, ss.callCount(), "prefetch should have run once")
	time.Sleep(20 * time.Millisecond)

	// identical parameters answer from the session cache
	rec = doJSON(t, router, http.MethodPost, base+"/search", validBody(2))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		CacheHit bool `json:"cache_hit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.CacheHit)
	assert.Equal(t, 1, ss.callCount(), "cache hit makes no provider call")

	// changed parameters miss and fetch
	rec = doJSON(t, router, http.MethodPost, base+"/search", validBody(3))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.False(t, out.CacheHit)
	assert.Equal(t, 2, ss.callCount())

	rec = doJSON(t, router, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base+"/search", validBody(2))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionUnknownID(t *testing.T) {
	router, _ := newTestRouter(&stubSearcher{}, allowAll{})

	rec := doJSON(t, router, http.MethodPost, "/sessions/nope/schedule", validBody(2))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlexDatesEndpoint(t *testing.T) {
	ss := &stubSearcher{}
	router, _ := newTestRouter(ss, allowAll{})

	var body map[string]any
	require.NoError(t, json.Unmarshal(validBody(2), &body))
	// keep the window in the future relative to the clock
	checkIn := time.Now().UTC().AddDate(0, 1, 0)
	body["check_in"] = checkIn.Format("2006-01-02")
	body["check_out"] = checkIn.AddDate(0, 0, 7).Format("2006-01-02")
	body["range"] = 2
	b, _ := json.Marshal(body)

	rec := doJSON(t, router, http.MethodPost, "/flexdates", b)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Dates []struct {
			Date      time.Time `json:"date"`
			Available bool      `json:"available"`
			Price     *float64  `json:"price"`
			Cheapest  bool      `json:"cheapest"`
		} `json:"dates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Dates, 5)
	for _, d := range out.Dates {
		assert.True(t, d.Available)
		require.NotNil(t, d.Price)
		assert.True(t, d.Cheapest, "flat prices tie for cheapest everywhere")
	}
	assert.Equal(t, 5, ss.callCount(), "one probe per candidate date")
}

func TestFlexDatesRangeClamped(t *testing.T) {
	ss := &stubSearcher{}
	router, _ := newTestRouter(ss, allowAll{})

	var body map[string]any
	require.NoError(t, json.Unmarshal(validBody(2), &body))
	checkIn := time.Now().UTC().AddDate(0, 1, 0)
	body["check_in"] = checkIn.Format("2006-01-02")
	body["check_out"] = checkIn.AddDate(0, 0, 7).Format("2006-01-02")
	body["range"] = 5000
	b, _ := json.Marshal(body)

	rec := doJSON(t, router, http.MethodPost, "/flexdates", b)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Dates []json.RawMessage `json:"dates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Dates, 15, "range caps at a week either side")
	assert.Equal(t, 15, ss.callCount(), "probe fan-out stays bounded")
}

func TestSessionIdleEviction(t *testing.T) {
	router, h := newTestRouter(&stubSearcher{}, allowAll{})
	h.sessionTTL = 10 * time.Millisecond

	rec := doJSON(t, router, http.MethodPost, "/sessions/", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	time.Sleep(30 * time.Millisecond)

	// creating another session sweeps the abandoned one
	rec = doJSON(t, router, http.MethodPost, "/sessions/", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/sessions/"+created.SessionID+"/search", validBody(2))
	assert.Equal(t, http.StatusNotFound, rec.Code, "idle session should be gone")
}

func TestSessionCap(t *testing.T) {
	router, h := newTestRouter(&stubSearcher{}, allowAll{})
	h.maxSessions = 2

	for i := 0; i < 2; i++ {
		rec := doJSON(t, router, http.MethodPost, "/sessions/", nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := doJSON(t, router, http.MethodPost, "/sessions/", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(&stubSearcher{}, allowAll{})

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWriteSearchErrorMapping(t *testing.T) {
	m := obs.NewMetrics(prometheus.NewRegistry())
	h := NewHandler(&stubSearcher{}, nil, allowAll{}, m)

	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: bad", models.ErrInvalidRequest), http.StatusBadRequest},
		{search.ErrProviderUnavailable, http.StatusBadGateway},
		{search.ErrEngineClosed, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.writeSearchError(rec, tc.err, "req-1")
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}
