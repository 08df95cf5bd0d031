package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Nenad034/olympichub-search/internal/models"
	"github.com/Nenad034/olympichub-search/internal/obs"
	"github.com/Nenad034/olympichub-search/internal/search"
)

// maxFlexRange bounds the flexible-date probe fan-out. The dashboard never
// offers more than a week either side of the requested check-in.
const maxFlexRange = 7

// Session housekeeping: sessions idle past the TTL are swept when a new one
// is created, and the live count is capped.
const (
	maxSessions    = 500
	sessionIdleTTL = 30 * time.Minute
)

type sessionState struct {
	engine   *search.Engine
	lastSeen time.Time
}

// Handler serves the search API. Stateless searches go straight through the
// pipeline; session endpoints manage one prefetch engine per consumer.
type Handler struct {
	searcher      search.Searcher
	newEngine     func() *search.Engine
	ratelimiter   search.RateLimiter
	metrics       *obs.Metrics
	searchTimeout time.Duration
	sessionTTL    time.Duration
	maxSessions   int

	mu       sync.Mutex
	sessions map[string]*sessionState
}

func NewHandler(searcher search.Searcher, newEngine func() *search.Engine, rl search.RateLimiter, m *obs.Metrics) *Handler {
	return &Handler{
		searcher:      searcher,
		newEngine:     newEngine,
		ratelimiter:   rl,
		metrics:       m,
		searchTimeout: 6 * time.Second,
		sessionTTL:    sessionIdleTTL,
		maxSessions:   maxSessions,
		sessions:      make(map[string]*sessionState),
	}
}

func (h *Handler) ipFromRequest(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func requestID(r *http.Request) string {
	// chi's middleware.RequestID sets X-Request-Id header
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	return uuid.New().String()
}

func (h *Handler) decodeSearch(w http.ResponseWriter, r *http.Request, reqID string) (*searchPayload, *models.SearchRequest, bool) {
	var payload searchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		BadRequest(w, "malformed JSON body", map[string]string{"request_id": reqID})
		return nil, nil, false
	}
	req, err := payload.toRequest()
	if err != nil {
		BadRequest(w, err.Error(), map[string]string{"request_id": reqID})
		return nil, nil, false
	}
	if err := req.Validate(); err != nil {
		BadRequest(w, err.Error(), map[string]string{"request_id": reqID})
		return nil, nil, false
	}
	return &payload, req, true
}

func (h *Handler) allow(w http.ResponseWriter, r *http.Request, reqID string) bool {
	if h.ratelimiter.Allow(h.ipFromRequest(r)) {
		return true
	}
	h.metrics.IncRateLimitDrops()
	TooManyRequests(w, "rate limit exceeded", map[string]string{"request_id": reqID})
	return false
}

// Search is the stateless explicit search: no prefetch cache involved.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)
	if !h.allow(w, r, reqID) {
		return
	}
	payload, req, ok := h.decodeSearch(w, r, reqID)
	if !ok {
		return
	}
	h.metrics.IncRequests()

	ctx, cancel := context.WithTimeout(r.Context(), h.searchTimeout)
	defer cancel()

	res, err := h.searcher.Search(ctx, req)
	if err != nil {
		h.writeSearchError(w, err, reqID)
		return
	}
	h.writeResult(w, res, req, payload, false)
}

// CreateSession allocates a prefetch engine for one consumer. Abandoned
// sessions are swept here rather than by a background goroutine, so an
// idle server holds no timers.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.New().String()
	now := time.Now()

	h.mu.Lock()
	var stale []*search.Engine
	for sid, s := range h.sessions {
		if now.Sub(s.lastSeen) > h.sessionTTL {
			stale = append(stale, s.engine)
			delete(h.sessions, sid)
		}
	}
	if len(h.sessions) >= h.maxSessions {
		h.mu.Unlock()
		for _, e := range stale {
			e.Close()
		}
		TooManyRequests(w, "too many live sessions", nil)
		return
	}
	h.sessions[id] = &sessionState{engine: h.newEngine(), lastSeen: now}
	h.mu.Unlock()

	for _, e := range stale {
		e.Close()
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// DeleteSession tears a session down, cancelling any in-flight prefetch.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if !ok {
		NotFound(w, "unknown session", nil)
		return
	}
	s.engine.Close()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*search.Engine, bool) {
	id := chi.URLParam(r, "id")
	h.mu.Lock()
	s, ok := h.sessions[id]
	if ok {
		s.lastSeen = time.Now()
	}
	h.mu.Unlock()
	if !ok {
		NotFound(w, "unknown session", nil)
		return nil, false
	}
	return s.engine, true
}

// Schedule feeds changed parameters into the session's debounced prefetch.
// Always 202: whether a provider call eventually happens is the engine's
// business.
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)
	engine, ok := h.session(w, r)
	if !ok {
		return
	}
	var payload searchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		BadRequest(w, "malformed JSON body", map[string]string{"request_id": reqID})
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		BadRequest(w, err.Error(), map[string]string{"request_id": reqID})
		return
	}
	engine.Schedule(req)
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

// SessionSearch is the explicit search through a session's engine: a key
// match on the last completed prefetch answers from cache with zero
// provider calls.
func (h *Handler) SessionSearch(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)
	engine, ok := h.session(w, r)
	if !ok {
		return
	}
	if !h.allow(w, r, reqID) {
		return
	}
	payload, req, ok := h.decodeSearch(w, r, reqID)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.searchTimeout)
	defer cancel()

	res, cacheHit, err := engine.Search(ctx, req)
	if err != nil {
		h.writeSearchError(w, err, reqID)
		return
	}
	h.writeResult(w, res, req, payload, cacheHit)
}

// FlexDates builds the flexible-date availability table around the
// requested check-in.
func (h *Handler) FlexDates(w http.ResponseWriter, r *http.Request) {
	reqID := requestID(r)
	if !h.allow(w, r, reqID) {
		return
	}

	var payload struct {
		searchPayload
		Range int `json:"range"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		BadRequest(w, "malformed JSON body", map[string]string{"request_id": reqID})
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		BadRequest(w, err.Error(), map[string]string{"request_id": reqID})
		return
	}
	if err := req.Validate(); err != nil {
		BadRequest(w, err.Error(), map[string]string{"request_id": reqID})
		return
	}
	if payload.Range > maxFlexRange {
		payload.Range = maxFlexRange
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.searchTimeout*3)
	defer cancel()

	pricing := search.Pricing{IsReseller: payload.Reseller}
	nights := req.Nights()
	probe := func(ctx context.Context, checkIn time.Time) (bool, float64, error) {
		shifted := *req
		shifted.CheckIn = checkIn
		shifted.CheckOut = checkIn.AddDate(0, 0, nights)
		res, err := h.searcher.Search(ctx, &shifted)
		if err != nil {
			return false, 0, err
		}
		best := 0.0
		found := false
		for _, o := range res.Offers {
			total, ok := search.AggregatePrice(o, shifted.Allocations, pricing)
			if !ok {
				continue
			}
			if !found || total < best {
				best = total
				found = true
			}
		}
		return found, best, nil
	}

	dates := search.ExpandDates(req.CheckIn, payload.Range, time.Now().UTC())
	table := search.BuildDateTable(ctx, dates, probe)
	WriteJSON(w, http.StatusOK, map[string]any{"dates": table})
}

func (h *Handler) writeResult(w http.ResponseWriter, res *search.Result, req *models.SearchRequest, payload *searchPayload, cacheHit bool) {
	pricing := search.Pricing{IsReseller: payload.Reseller}
	out := map[string]any{
		"key":       search.BuildKey(req),
		"cache_hit": cacheHit,
		"stats":     res.Stats,
		"offers":    buildOfferViews(res, req, pricing),
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) writeSearchError(w http.ResponseWriter, err error, reqID string) {
	meta := map[string]string{"request_id": reqID}
	switch {
	case errors.Is(err, models.ErrInvalidRequest):
		BadRequest(w, err.Error(), meta)
	case errors.Is(err, search.ErrProviderUnavailable):
		BadGateway(w, err.Error(), meta)
	case errors.Is(err, search.ErrEngineClosed):
		NotFound(w, err.Error(), meta)
	default:
		InternalError(w, err.Error(), meta)
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
