package websocket

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

func TestMatchesExact(t *testing.T) {
	p := &endpoint.MessagePattern{MatchType: endpoint.WSMatchExact, Pattern: "ping"}

	assert.True(t, Matches(p, []byte("ping")))
	assert.False(t, Matches(p, []byte("ping ")))
	assert.False(t, Matches(p, []byte("PING")))
}

func TestMatchesContains(t *testing.T) {
	p := &endpoint.MessagePattern{MatchType: endpoint.WSMatchContains, Pattern: "error"}

	assert.True(t, Matches(p, []byte("an error occurred")))
	assert.True(t, Matches(p, []byte("error")))
	assert.False(t, Matches(p, []byte("all good")))
}

func TestMatchesRegex(t *testing.T) {
	p := &endpoint.MessagePattern{MatchType: endpoint.WSMatchRegex, Pattern: `^ping-\d+$`}

	assert.True(t, Matches(p, []byte("ping-42")))
	assert.False(t, Matches(p, []byte("ping-x")))

	// Same pattern again exercises the compiled-regex cache.
	assert.True(t, Matches(p, []byte("ping-7")))
}

func TestRegexCacheBounded(t *testing.T) {
	for i := 0; i < maxRegexCache*2; i++ {
		p := &endpoint.MessagePattern{MatchType: endpoint.WSMatchRegex, Pattern: fmt.Sprintf(`^msg-%d$`, i)}
		assert.True(t, Matches(p, []byte(fmt.Sprintf("msg-%d", i))))
	}

	regexMu.RLock()
	size := len(regexCache)
	regexMu.RUnlock()
	assert.LessOrEqual(t, size, maxRegexCache)

	// Matching keeps working after the cache recycles.
	p := &endpoint.MessagePattern{MatchType: endpoint.WSMatchRegex, Pattern: `^ping-\d+$`}
	assert.True(t, Matches(p, []byte("ping-1")))
}

func TestMatchesInvalidRegex(t *testing.T) {
	p := &endpoint.MessagePattern{MatchType: endpoint.WSMatchRegex, Pattern: `([`}

	assert.False(t, Matches(p, []byte("anything")))
}

func TestMatchesJSONPath(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		payload string
		want    bool
	}{
		{"top-level string", "type=subscribe", `{"type": "subscribe"}`, true},
		{"nested path", "user.name=ada", `{"user": {"name": "ada"}}`, true},
		{"numeric value", "count=3", `{"count": 3}`, true},
		{"boolean value", "active=true", `{"active": true}`, true},
		{"wrong value", "type=subscribe", `{"type": "unsubscribe"}`, false},
		{"missing path", "user.name=ada", `{"user": {}}`, false},
		{"non-json payload", "type=subscribe", `not json`, false},
		{"no equals sign", "type", `{"type": "subscribe"}`, false},
		{"empty path", "=subscribe", `{"": "subscribe"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &endpoint.MessagePattern{MatchType: endpoint.WSMatchJSONPath, Pattern: tt.pattern}
			assert.Equal(t, tt.want, Matches(p, []byte(tt.payload)))
		})
	}
}

func TestMatchResponseFirstMatchWins(t *testing.T) {
	patterns := []endpoint.MessagePattern{
		{MatchType: endpoint.WSMatchExact, Pattern: "status", Response: &endpoint.WSResponse{Data: "first"}},
		{MatchType: endpoint.WSMatchContains, Pattern: "stat", Response: &endpoint.WSResponse{Data: "second"}},
	}

	resp, matched := MatchResponse(patterns, []byte("status"))
	require.True(t, matched)
	require.NotNil(t, resp)
	assert.Equal(t, "first", resp.Data)

	resp, matched = MatchResponse(patterns, []byte("stats"))
	require.True(t, matched)
	require.NotNil(t, resp)
	assert.Equal(t, "second", resp.Data)
}

func TestMatchResponseNoMatch(t *testing.T) {
	patterns := []endpoint.MessagePattern{
		{MatchType: endpoint.WSMatchExact, Pattern: "ping", Response: &endpoint.WSResponse{Data: "pong"}},
	}

	resp, matched := MatchResponse(patterns, []byte("hello"))
	assert.False(t, matched)
	assert.Nil(t, resp)
}

func TestMatchResponsePatternWithoutResponse(t *testing.T) {
	patterns := []endpoint.MessagePattern{
		{MatchType: endpoint.WSMatchExact, Pattern: "drop"},
		{MatchType: endpoint.WSMatchContains, Pattern: "drop", Response: &endpoint.WSResponse{Data: "never"}},
	}

	// The first pattern wins even without a response; the scan stops.
	resp, matched := MatchResponse(patterns, []byte("drop"))
	assert.True(t, matched)
	assert.Nil(t, resp)
}
