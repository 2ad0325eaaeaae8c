package scenario

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

func boolPtr(b bool) *bool { return &b }

func seqConfig(loop bool, statuses ...int) *endpoint.ScenarioConfig {
	cfg := &endpoint.ScenarioConfig{
		Enabled: true,
		Mode:    endpoint.ScenarioSequential,
		Loop:    boolPtr(loop),
	}
	for i, st := range statuses {
		cfg.Responses = append(cfg.Responses, endpoint.ScenarioResponse{Order: i, Status: st})
	}
	return cfg
}

func TestCountersNextIncrements(t *testing.T) {
	c := NewCounters()

	assert.Equal(t, 0, c.Next("ep-1", 0))
	assert.Equal(t, 1, c.Next("ep-1", 0))
	assert.Equal(t, 2, c.Next("ep-1", 0))

	// Independent endpoint starts fresh.
	assert.Equal(t, 0, c.Next("ep-2", 0))
}

func TestCountersAutoReset(t *testing.T) {
	c := NewCounters()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Next("ep-1", 30*time.Second)
	c.Next("ep-1", 30*time.Second)

	// Idle beyond resetAfter restarts from zero.
	now = now.Add(31 * time.Second)
	assert.Equal(t, 0, c.Next("ep-1", 30*time.Second))

	// Zero resetAfter never resets.
	now = now.Add(24 * time.Hour)
	assert.Equal(t, 1, c.Next("ep-1", 0))

	// Idle for exactly resetAfter resets too; just under does not.
	c.Next("ep-2", 30*time.Second)
	now = now.Add(30 * time.Second)
	assert.Equal(t, 0, c.Next("ep-2", 30*time.Second))
	now = now.Add(29 * time.Second)
	assert.Equal(t, 1, c.Next("ep-2", 30*time.Second))
}

func TestCountersResetAndSnapshot(t *testing.T) {
	c := NewCounters()

	c.Next("ep-1", 0)
	c.Next("ep-1", 0)
	c.Next("ep-2", 0)

	snap := c.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, 2, snap["ep-1"].Count)
	assert.Equal(t, 1, snap["ep-2"].Count)

	c.Reset("ep-1")
	_, ok := c.Value("ep-1")
	assert.False(t, ok)
	st, ok := c.Value("ep-2")
	require.True(t, ok)
	assert.Equal(t, 1, st.Count)

	c.ResetAll()
	assert.Empty(t, c.Snapshot())
}

func TestCountersConcurrentNext(t *testing.T) {
	c := NewCounters()

	const goroutines = 20
	const perGoroutine = 50

	seen := make(chan int, goroutines*perGoroutine)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				seen <- c.Next("ep-1", 0)
			}
		}()
	}
	wg.Wait()
	close(seen)

	// Read-then-increment is atomic, so every value is unique.
	values := make(map[int]bool)
	for v := range seen {
		require.False(t, values[v], "duplicate counter value %d", v)
		values[v] = true
	}
	assert.Len(t, values, goroutines*perGoroutine)
}

func TestPickSequentialLoops(t *testing.T) {
	s := NewSelector(NewCounters())
	cfg := seqConfig(true, 200, 500, 503)

	var got []int
	for i := 0; i < 7; i++ {
		resp := s.Pick("ep-1", cfg)
		require.NotNil(t, resp)
		got = append(got, resp.Status)
	}
	assert.Equal(t, []int{200, 500, 503, 200, 500, 503, 200}, got)
}

func TestPickSequentialPinsLastWithoutLoop(t *testing.T) {
	s := NewSelector(NewCounters())
	cfg := seqConfig(false, 200, 500)

	var got []int
	for i := 0; i < 4; i++ {
		got = append(got, s.Pick("ep-1", cfg).Status)
	}
	assert.Equal(t, []int{200, 500, 500, 500}, got)
}

func TestPickSequentialSortsByOrder(t *testing.T) {
	s := NewSelector(NewCounters())
	cfg := &endpoint.ScenarioConfig{
		Enabled: true,
		Mode:    endpoint.ScenarioSequential,
		Responses: []endpoint.ScenarioResponse{
			{Order: 2, Status: 503},
			{Order: 0, Status: 200},
			{Order: 1, Status: 500},
		},
	}

	assert.Equal(t, 200, s.Pick("ep-1", cfg).Status)
	assert.Equal(t, 500, s.Pick("ep-1", cfg).Status)
	assert.Equal(t, 503, s.Pick("ep-1", cfg).Status)
}

func TestPickRandomUsesDraw(t *testing.T) {
	s := NewSelector(NewCounters())
	cfg := &endpoint.ScenarioConfig{
		Enabled: true,
		Mode:    endpoint.ScenarioRandom,
		Responses: []endpoint.ScenarioResponse{
			{Status: 200}, {Status: 500}, {Status: 503},
		},
	}

	s.randIntN = func(n int) int { require.Equal(t, 3, n); return 2 }
	assert.Equal(t, 503, s.Pick("ep-1", cfg).Status)

	s.randIntN = func(n int) int { return 0 }
	assert.Equal(t, 200, s.Pick("ep-1", cfg).Status)
}

func TestPickWeighted(t *testing.T) {
	s := NewSelector(NewCounters())
	cfg := &endpoint.ScenarioConfig{
		Enabled: true,
		Mode:    endpoint.ScenarioWeighted,
		Responses: []endpoint.ScenarioResponse{
			{Weight: 3, Status: 200},
			{Weight: 0, Status: 500}, // missing weight counts as 1
			{Weight: 2, Status: 503},
		},
	}

	// Total weight 6: draws 0-2 hit the first, 3 the second, 4-5 the third.
	draws := map[int]int{0: 200, 2: 200, 3: 500, 4: 503, 5: 503}
	for draw, want := range draws {
		s.randIntN = func(n int) int { require.Equal(t, 6, n); return draw }
		assert.Equal(t, want, s.Pick("ep-1", cfg).Status, "draw %d", draw)
	}
}

func TestPickDisabledOrEmpty(t *testing.T) {
	s := NewSelector(NewCounters())

	assert.Nil(t, s.Pick("ep-1", nil))
	assert.Nil(t, s.Pick("ep-1", &endpoint.ScenarioConfig{Enabled: false, Mode: endpoint.ScenarioSequential,
		Responses: []endpoint.ScenarioResponse{{Status: 200}}}))
	assert.Nil(t, s.Pick("ep-1", &endpoint.ScenarioConfig{Enabled: true, Mode: endpoint.ScenarioSequential}))

	// Disabled scenarios leave the counter untouched.
	_, ok := s.Counters().Value("ep-1")
	assert.False(t, ok)
}

func TestPickResetRestartsRotation(t *testing.T) {
	s := NewSelector(NewCounters())
	cfg := seqConfig(true, 200, 500, 503)

	s.Pick("ep-1", cfg)
	s.Pick("ep-1", cfg)
	s.Counters().Reset("ep-1")

	assert.Equal(t, 200, s.Pick("ep-1", cfg).Status)
}
