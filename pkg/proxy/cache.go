package proxy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"
)

// sweepProbability is the chance a forwarder call triggers an expired-
// entry sweep, keeping eviction off the critical path most of the time.
const sweepProbability = 0.1

// CacheKey identifies a cached upstream response. The body participates
// so that POST calls with different payloads never collide.
func CacheKey(method, absoluteURL string, body []byte) string {
	sum := sha256.Sum256(body)
	return fmt.Sprintf("%s|%s|%s", method, absoluteURL, hex.EncodeToString(sum[:]))
}

type cacheEntry struct {
	status  int
	header  http.Header
	body    []byte
	expires time.Time
}

// Cache stores upstream responses with a TTL per entry. Expired entries
// are dropped lazily on lookup and in occasional sweeps.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry

	now       func() time.Time
	randFloat func() float64
}

// NewCache creates an empty response cache.
func NewCache() *Cache {
	return &Cache{
		entries:   make(map[string]cacheEntry),
		now:       time.Now,
		randFloat: rand.Float64,
	}
}

// Get returns a fresh entry for the key. Expired entries are removed
// and reported as a miss.
func (c *Cache) Get(key string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return &Result{
		Status:    e.status,
		Header:    e.header.Clone(),
		Body:      append([]byte(nil), e.body...),
		FromCache: true,
	}, true
}

// Put stores a response under the key for the given lifetime.
func (c *Cache) Put(key string, res *Result, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		status:  res.Status,
		header:  res.Header.Clone(),
		body:    append([]byte(nil), res.Body...),
		expires: c.now().Add(ttl),
	}
}

// Len returns the number of entries, counting expired ones not yet
// swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes every entry and returns how many were dropped.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return n
}

// Sweep removes expired entries and returns how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for key, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// maybeSweep runs Sweep with sweepProbability.
func (c *Cache) maybeSweep() {
	if c.randFloat() < sweepProbability {
		c.Sweep()
	}
}
