package endpoint

import (
	"bytes"
	"encoding/json"
	"time"
)

// HistoryAction names the mutation that produced a history entry.
type HistoryAction string

const (
	ActionCreated  HistoryAction = "created"
	ActionUpdated  HistoryAction = "updated"
	ActionDeleted  HistoryAction = "deleted"
	ActionRestored HistoryAction = "restored"
)

// FieldChange records one field's value before and after a mutation.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}

// HistoryEntry is an immutable record of one endpoint mutation. Snapshot
// holds the endpoint as it stood after the mutation (or, for deletes, just
// before it); restoring an entry rewrites the endpoint to that snapshot.
type HistoryEntry struct {
	ID         string                 `json:"id"`
	EndpointID string                 `json:"endpointId"`
	Action     HistoryAction          `json:"action"`
	Timestamp  time.Time              `json:"timestamp"`
	Snapshot   *Endpoint              `json:"snapshot"`
	Changes    map[string]FieldChange `json:"changes,omitempty"`
}

// Diff computes the top-level endpoint fields that differ between two
// snapshots. Values are compared by their JSON encoding, which treats
// semantically equal bodies as equal regardless of pointer identity.
// Returns nil when nothing changed.
func Diff(before, after *Endpoint) map[string]FieldChange {
	fields := []struct {
		name     string
		from, to any
	}{
		{"method", before.Method, after.Method},
		{"path", before.Path, after.Path},
		{"statusCode", before.StatusCode, after.StatusCode},
		{"response", before.Response, after.Response},
		{"responseHeaders", before.ResponseHeaders, after.ResponseHeaders},
		{"delay", before.Delay, after.Delay},
		{"conditionalResponses", before.ConditionalResponses, after.ConditionalResponses},
		{"scenarioConfig", before.ScenarioConfig, after.ScenarioConfig},
		{"proxyConfig", before.ProxyConfig, after.ProxyConfig},
		{"authConfig", before.AuthConfig, after.AuthConfig},
		{"rateLimitConfig", before.RateLimitConfig, after.RateLimitConfig},
		{"environmentOverrides", before.EnvironmentOverrides, after.EnvironmentOverrides},
		{"status", before.Status, after.Status},
		{"tags", before.Tags, after.Tags},
	}

	var changes map[string]FieldChange
	for _, f := range fields {
		if !jsonEqual(f.from, f.to) {
			if changes == nil {
				changes = make(map[string]FieldChange)
			}
			changes[f.name] = FieldChange{From: f.from, To: f.to}
		}
	}
	return changes
}

func jsonEqual(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
