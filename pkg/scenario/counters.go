// Package scenario rotates endpoint responses across successive
// requests. A per-endpoint counter drives sequential progression;
// random and weighted modes draw from the response set without
// consulting the counter, though every scenario request still advances
// it so the admin API can report traffic per scenario.
package scenario

import (
	"sync"
	"time"
)

// CounterState is a point-in-time view of one endpoint's counter.
type CounterState struct {
	Count      int       `json:"count"`
	LastAccess time.Time `json:"lastAccess"`
}

type counterEntry struct {
	count      int
	lastAccess time.Time
}

// Counters tracks one monotonically increasing counter per endpoint.
// Counters survive endpoint updates but are dropped on endpoint delete
// and reset explicitly through the admin API.
type Counters struct {
	mu      sync.Mutex
	entries map[string]*counterEntry
	now     func() time.Time
}

// NewCounters creates an empty counter registry.
func NewCounters() *Counters {
	return &Counters{
		entries: make(map[string]*counterEntry),
		now:     time.Now,
	}
}

// Next returns the endpoint's current counter value and increments it,
// as one atomic step. When resetAfter is positive and the counter has
// been idle for at least that long, it restarts from zero before the
// read, so a scenario walked to completion replays from the top after
// a quiet period.
func (c *Counters) Next(endpointID string, resetAfter time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	e := c.entries[endpointID]
	if e == nil {
		e = &counterEntry{}
		c.entries[endpointID] = e
	} else if resetAfter > 0 && now.Sub(e.lastAccess) >= resetAfter {
		e.count = 0
	}

	value := e.count
	e.count++
	e.lastAccess = now
	return value
}

// Value returns the endpoint's counter without advancing it.
func (c *Counters) Value(endpointID string) (CounterState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[endpointID]
	if !ok {
		return CounterState{}, false
	}
	return CounterState{Count: e.count, LastAccess: e.lastAccess}, true
}

// Reset restarts one endpoint's rotation from the first response.
func (c *Counters) Reset(endpointID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, endpointID)
}

// ResetAll restarts every endpoint's rotation.
func (c *Counters) ResetAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*counterEntry)
}

// Snapshot returns the current state of every tracked counter, keyed by
// endpoint ID.
func (c *Counters) Snapshot() map[string]CounterState {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]CounterState, len(c.entries))
	for id, e := range c.entries {
		out[id] = CounterState{Count: e.count, LastAccess: e.lastAccess}
	}
	return out
}
