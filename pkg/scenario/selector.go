package scenario

import (
	"math/rand/v2"
	"sort"
	"time"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

// Selector picks the next scenario response for an endpoint, advancing
// its counter as a side effect.
type Selector struct {
	counters *Counters

	// randIntN is swapped out in tests for deterministic draws.
	randIntN func(n int) int
}

// NewSelector creates a Selector backed by the given counter registry.
func NewSelector(counters *Counters) *Selector {
	return &Selector{
		counters: counters,
		randIntN: rand.IntN,
	}
}

// Counters exposes the underlying registry for admin operations.
func (s *Selector) Counters() *Counters {
	return s.counters
}

// Pick selects the response for this request, or nil when the scenario
// is disabled, absent, or has no responses. The endpoint counter
// advances on every call that reaches an enabled scenario.
func (s *Selector) Pick(endpointID string, cfg *endpoint.ScenarioConfig) *endpoint.ScenarioResponse {
	if cfg == nil || !cfg.Enabled || len(cfg.Responses) == 0 {
		return nil
	}

	resetAfter := time.Duration(cfg.ResetAfter) * time.Second
	counter := s.counters.Next(endpointID, resetAfter)

	switch cfg.Mode {
	case endpoint.ScenarioRandom:
		return &cfg.Responses[s.randIntN(len(cfg.Responses))]
	case endpoint.ScenarioWeighted:
		return s.pickWeighted(cfg.Responses)
	default:
		// Sequential, also the fallback for an unset mode.
		return pickSequential(cfg, counter)
	}
}

// pickSequential walks responses in Order. With looping the counter
// wraps around; without it the rotation pins to the last response.
func pickSequential(cfg *endpoint.ScenarioConfig, counter int) *endpoint.ScenarioResponse {
	ordered := make([]*endpoint.ScenarioResponse, len(cfg.Responses))
	for i := range cfg.Responses {
		ordered[i] = &cfg.Responses[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	idx := counter
	if cfg.LoopEnabled() {
		idx = counter % len(ordered)
	} else if idx >= len(ordered) {
		idx = len(ordered) - 1
	}
	return ordered[idx]
}

// pickWeighted samples proportionally to Weight, treating missing or
// non-positive weights as 1 so every response keeps a chance.
func (s *Selector) pickWeighted(responses []endpoint.ScenarioResponse) *endpoint.ScenarioResponse {
	total := 0
	for i := range responses {
		total += effectiveWeight(responses[i].Weight)
	}

	draw := s.randIntN(total)
	for i := range responses {
		draw -= effectiveWeight(responses[i].Weight)
		if draw < 0 {
			return &responses[i]
		}
	}
	return &responses[len(responses)-1]
}

func effectiveWeight(w int) int {
	if w <= 0 {
		return 1
	}
	return w
}
