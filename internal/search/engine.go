package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Nenad034/olympichub-search/internal/models"
	"github.com/Nenad034/olympichub-search/internal/obs"
)

// DefaultDebounce is how long schedule calls may keep superseding each
// other before a provider call actually starts.
const DefaultDebounce = 300 * time.Millisecond

// CacheEntry is the engine's single cached result. It is replaced whole,
// never merged, and never expires: staleness is bounded by key equality
// alone, so any parameter change forces a fresh fetch.
type CacheEntry struct {
	Key        string
	Result     *Result
	ComputedAt time.Time
}

// Subscriber receives engine lifecycle callbacks. Per engine, at most one
// OnStart is outstanding without its matching OnEnd.
type Subscriber struct {
	OnStart    func()
	OnEnd      func()
	OnComplete func(res *Result, key string)
}

// Engine owns speculative searching for one consumer session: it debounces
// parameter changes, keeps at most one provider call in flight, caches the
// last completed result under its canonical key, and answers an explicit
// search from that cache when the key matches exactly.
//
// One engine per session; engines share nothing but the provider endpoint.
type Engine struct {
	searcher Searcher
	metrics  *obs.Metrics
	logger   *slog.Logger
	debounce time.Duration

	mu            sync.Mutex
	timer         *time.Timer
	generation    uint64
	fetchingKey   string
	explicitFetch bool
	cancel        context.CancelFunc
	entry         *CacheEntry
	busy          bool
	subscribers   map[string]Subscriber
	closed        bool
}

func NewEngine(searcher Searcher, debounce time.Duration, m *obs.Metrics, logger *slog.Logger) *Engine {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Engine{
		searcher:    searcher,
		metrics:     m,
		logger:      logger,
		debounce:    debounce,
		subscribers: make(map[string]Subscriber),
	}
}

// Subscribe registers lifecycle callbacks under an id and returns the
// matching unsubscribe function.
func (e *Engine) Subscribe(id string, sub Subscriber) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return func() {}
	}
	e.subscribers[id] = sub
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.subscribers, id)
	}
}

// Entry returns the current cache entry, or nil. Callers must treat the
// entry as read-only.
func (e *Engine) Entry() *CacheEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entry
}

// Schedule requests a speculative search. Safe to call on every parameter
// change: calls landing inside the debounce window replace the pending one
// with zero side effects, and only the last settled value reaches the
// provider layer. Requests that are not worth prefetching (no destinations,
// no active rooms, country-wide scope) are ignored silently.
func (e *Engine) Schedule(req *models.SearchRequest) {
	if len(req.Destinations) == 0 || req.CheckIn.IsZero() || req.CheckOut.IsZero() ||
		len(req.ActiveAllocations()) == 0 {
		return
	}
	for _, d := range req.Destinations {
		if d.Kind == models.KindCountry {
			// country scope is too broad to speculate on
			return
		}
	}

	key := BuildKey(req)
	reqCopy := *req

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	// already cached and settled, or already being fetched
	if e.entry != nil && e.entry.Key == key && e.fetchingKey == "" {
		return
	}
	if e.fetchingKey == key {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, func() {
		e.execute(&reqCopy, key)
	})
}

// Cancel drops any pending debounce and marks in-flight work so its result
// is discarded on arrival.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
}

func (e *Engine) cancelLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.generation++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.fetchingKey = ""
	e.explicitFetch = false
}

// Close tears the engine down. In-flight work becomes a no-op on arrival.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.cancelLocked()
	var subs []Subscriber
	if e.busy {
		e.busy = false
		subs = e.snapshotSubscribersLocked()
	}
	e.subscribers = nil
	e.closed = true
	e.mu.Unlock()

	for _, s := range subs {
		if s.OnEnd != nil {
			s.OnEnd()
		}
	}
}

// execute runs the debounced prefetch. Supersedes any previous in-flight
// prefetch via the generation counter; an in-flight explicit fetch keeps
// the upstream slot and the speculation is dropped instead.
func (e *Engine) execute(req *models.SearchRequest, key string) {
	e.mu.Lock()
	if e.closed || e.fetchingKey == key {
		e.mu.Unlock()
		return
	}
	if e.explicitFetch {
		// the consumer is waiting on that call; speculation can always be dropped
		e.mu.Unlock()
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.generation++
	gen := e.generation
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.fetchingKey = key
	e.metrics.IncPrefetchStarted()
	started := false
	if !e.busy {
		e.busy = true
		started = true
	}
	e.mu.Unlock()

	if started {
		e.notifyStart()
	}

	res, err := e.searcher.Search(ctx, req)
	e.finish(gen, key, res, err, true)
}

// Search is the explicit path. When the request's key equals the cached
// entry's key the cached result is returned synchronously with zero
// provider calls. On a miss it fetches immediately, without debouncing,
// superseding any in-flight prefetch; a superseded prefetch arriving later
// can no longer overwrite this result.
func (e *Engine) Search(ctx context.Context, req *models.SearchRequest) (*Result, bool, error) {
	key := BuildKey(req)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, false, ErrEngineClosed
	}
	e.metrics.IncRequests()
	if e.entry != nil && e.entry.Key == key {
		res := e.entry.Result
		e.mu.Unlock()
		e.metrics.IncCacheHits()
		return res, true, nil
	}

	// stale cache miss: supersede prefetch work and fetch now
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if e.cancel != nil {
		e.cancel()
	}
	e.generation++
	gen := e.generation
	fetchCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.fetchingKey = key
	e.explicitFetch = true
	started := false
	if !e.busy {
		e.busy = true
		started = true
	}
	e.mu.Unlock()
	defer cancel()

	if started {
		e.notifyStart()
	}

	res, err := e.searcher.Search(fetchCtx, req)
	e.finish(gen, key, res, err, false)
	return res, false, err
}

// finish applies a completed fetch, unless a newer request took over in the
// meantime, in which case the arrival is discarded without side effects.
func (e *Engine) finish(gen uint64, key string, res *Result, err error, prefetch bool) {
	e.mu.Lock()
	if e.closed || gen != e.generation {
		e.mu.Unlock()
		if prefetch {
			e.metrics.IncPrefetchDiscards()
			e.logger.Debug("prefetch result superseded, discarding", "key", key)
		}
		return
	}

	if err == nil && res != nil {
		e.entry = &CacheEntry{Key: key, Result: res, ComputedAt: time.Now()}
	} else if err != nil && prefetch {
		e.logger.Warn("prefetch failed", "key", key, "error", err)
	}
	e.fetchingKey = ""
	e.cancel = nil
	e.explicitFetch = false
	e.busy = false
	subs := e.snapshotSubscribersLocked()
	e.mu.Unlock()

	if err == nil && res != nil {
		for _, s := range subs {
			if s.OnComplete != nil {
				s.OnComplete(res, key)
			}
		}
	}
	for _, s := range subs {
		if s.OnEnd != nil {
			s.OnEnd()
		}
	}
}

func (e *Engine) snapshotSubscribersLocked() []Subscriber {
	subs := make([]Subscriber, 0, len(e.subscribers))
	for _, s := range e.subscribers {
		subs = append(subs, s)
	}
	return subs
}

func (e *Engine) notifyStart() {
	e.mu.Lock()
	subs := e.snapshotSubscribersLocked()
	e.mu.Unlock()
	for _, s := range subs {
		if s.OnStart != nil {
			s.OnStart()
		}
	}
}
