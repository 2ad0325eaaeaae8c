// Package ratelimit enforces per-endpoint request quotas using fixed
// time windows. Each endpoint tracks callers independently, keyed by
// client IP, a header value, or a query parameter, so one noisy client
// cannot exhaust another client's quota.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultWindow is used when an endpoint does not specify a window size.
const DefaultWindow = time.Minute

// staleAfter is how long an idle window entry survives before the
// cleanup pass removes it.
const staleAfter = time.Hour

// cleanupInterval is how often the cleanup pass runs.
const cleanupInterval = time.Minute

// Decision is the outcome of a rate-limit check, carrying everything a
// handler needs to emit X-RateLimit-* headers.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Limit is the total budget for the window, including burst.
	Limit int

	// Remaining is how many requests are left in the current window.
	Remaining int

	// Reset is when the current window ends.
	Reset time.Time

	// RetryAfter is the suggested wait before retrying, rounded up to
	// whole seconds. Zero when the request was allowed.
	RetryAfter time.Duration
}

// window is the mutable state for one (endpoint, client) pair.
type window struct {
	count      int
	burstUsed  int
	start      time.Time
	lastAccess time.Time
}

// Limiter tracks fixed-window counters for every endpoint and client
// key. A background goroutine sweeps entries idle for more than an
// hour; call Close to stop it.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]map[string]*window // endpointID -> clientKey -> state

	now func() time.Time

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
}

// NewLimiter creates a Limiter and starts its cleanup goroutine.
func NewLimiter() *Limiter {
	l := &Limiter{
		windows:   make(map[string]map[string]*window),
		now:       time.Now,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// Allow records a request against the endpoint's window for the given
// client key and reports whether it fits the budget.
//
// The budget is requests+burst per window: once the base allowance is
// consumed, up to burst extra requests are admitted before the window
// rolls over. Counters reset when the window elapses.
func (l *Limiter) Allow(endpointID, clientKey string, requests, burst int, windowSize time.Duration) Decision {
	if windowSize <= 0 {
		windowSize = DefaultWindow
	}
	if requests < 0 {
		requests = 0
	}
	if burst < 0 {
		burst = 0
	}
	limit := requests + burst

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	byKey := l.windows[endpointID]
	if byKey == nil {
		byKey = make(map[string]*window)
		l.windows[endpointID] = byKey
	}

	w := byKey[clientKey]
	if w == nil {
		w = &window{start: now}
		byKey[clientKey] = w
	}

	// Roll over to a fresh window once the current one has elapsed.
	if now.Sub(w.start) >= windowSize {
		w.count = 0
		w.burstUsed = 0
		w.start = now
	}
	w.lastAccess = now

	reset := w.start.Add(windowSize)

	if w.count >= limit {
		retry := reset.Sub(now)
		if retry < 0 {
			retry = 0
		}
		// Round up so a client sleeping Retry-After seconds lands in
		// the next window.
		retry = retry.Truncate(time.Second)
		if retry < reset.Sub(now) {
			retry += time.Second
		}
		return Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			Reset:      reset,
			RetryAfter: retry,
		}
	}

	w.count++
	if w.count > requests {
		w.burstUsed++
	}

	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - w.count,
		Reset:     reset,
	}
}

// Reset clears all counters for a single endpoint. Clients start a
// fresh window on their next request.
func (l *Limiter) Reset(endpointID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, endpointID)
}

// ResetAll clears every counter for every endpoint.
func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows = make(map[string]map[string]*window)
}

// KeyState is a point-in-time view of one client's window, as reported
// by Stats.
type KeyState struct {
	Key         string    `json:"key"`
	Count       int       `json:"count"`
	BurstUsed   int       `json:"burstUsed"`
	WindowStart time.Time `json:"windowStart"`
	LastAccess  time.Time `json:"lastAccess"`
}

// EndpointStats summarizes the tracked windows for one endpoint.
type EndpointStats struct {
	EndpointID string     `json:"endpointId"`
	Keys       []KeyState `json:"keys"`
}

// Stats returns the current window state for every tracked endpoint.
// Endpoints with no recent traffic are absent.
func (l *Limiter) Stats() []EndpointStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := make([]EndpointStats, 0, len(l.windows))
	for id, byKey := range l.windows {
		es := EndpointStats{EndpointID: id, Keys: make([]KeyState, 0, len(byKey))}
		for key, w := range byKey {
			es.Keys = append(es.Keys, KeyState{
				Key:         key,
				Count:       w.count,
				BurstUsed:   w.burstUsed,
				WindowStart: w.start,
				LastAccess:  w.lastAccess,
			})
		}
		stats = append(stats, es)
	}
	return stats
}

// EndpointStatsFor returns the window state for a single endpoint and
// whether any state exists for it.
func (l *Limiter) EndpointStatsFor(endpointID string) (EndpointStats, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	byKey, ok := l.windows[endpointID]
	if !ok {
		return EndpointStats{}, false
	}
	es := EndpointStats{EndpointID: endpointID, Keys: make([]KeyState, 0, len(byKey))}
	for key, w := range byKey {
		es.Keys = append(es.Keys, KeyState{
			Key:         key,
			Count:       w.count,
			BurstUsed:   w.burstUsed,
			WindowStart: w.start,
			LastAccess:  w.lastAccess,
		})
	}
	return es, true
}

// Close stops the cleanup goroutine and waits for it to exit.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() {
		close(l.stopCh)
	})
	<-l.stoppedCh
}

func (l *Limiter) cleanupLoop() {
	defer close(l.stoppedCh)

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.removeStale()
		case <-l.stopCh:
			return
		}
	}
}

// removeStale drops windows idle for longer than staleAfter so
// one-off clients do not accumulate forever.
func (l *Limiter) removeStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-staleAfter)
	for id, byKey := range l.windows {
		for key, w := range byKey {
			if w.lastAccess.Before(cutoff) {
				delete(byKey, key)
			}
		}
		if len(byKey) == 0 {
			delete(l.windows, id)
		}
	}
}
