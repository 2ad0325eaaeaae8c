package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mockbird/mockbird/pkg/httputil"
)

// AdminGuard throttles admin API clients with a token bucket per
// client IP. Unlike the endpoint Limiter it has no per-endpoint
// configuration; one rate covers the whole admin surface.
type AdminGuard struct {
	mu       sync.Mutex
	limiters map[string]*adminClient

	rate  rate.Limit
	burst int
	now   func() time.Time

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
}

type adminClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewAdminGuard creates a guard admitting rps requests per second with
// the given burst per client IP. A background goroutine evicts clients
// idle for more than ten minutes.
func NewAdminGuard(rps float64, burst int) *AdminGuard {
	if rps <= 0 {
		rps = 50
	}
	if burst <= 0 {
		burst = 100
	}
	g := &AdminGuard{
		limiters:  make(map[string]*adminClient),
		rate:      rate.Limit(rps),
		burst:     burst,
		now:       time.Now,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	go g.evictLoop()
	return g
}

// Allow reports whether the request's client is within budget.
func (g *AdminGuard) Allow(r *http.Request) bool {
	ip := httputil.ClientIP(r)

	g.mu.Lock()
	c, ok := g.limiters[ip]
	if !ok {
		c = &adminClient{limiter: rate.NewLimiter(g.rate, g.burst)}
		g.limiters[ip] = c
	}
	c.lastSeen = g.now()
	g.mu.Unlock()

	return c.limiter.Allow()
}

// Close stops the eviction goroutine and waits for it to exit.
func (g *AdminGuard) Close() {
	g.stopOnce.Do(func() {
		close(g.stopCh)
	})
	<-g.stoppedCh
}

func (g *AdminGuard) evictLoop() {
	defer close(g.stoppedCh)

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.evictIdle()
		case <-g.stopCh:
			return
		}
	}
}

func (g *AdminGuard) evictIdle() {
	g.mu.Lock()
	defer g.mu.Unlock()

	cutoff := g.now().Add(-10 * time.Minute)
	for ip, c := range g.limiters {
		if c.lastSeen.Before(cutoff) {
			delete(g.limiters, ip)
		}
	}
}
