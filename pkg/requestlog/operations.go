package requestlog

import (
	"sync"
	"time"

	"github.com/mockbird/mockbird/internal/id"
)

// OperationEntry is one logged GraphQL operation.
type OperationEntry struct {
	ID         string `json:"id"`
	EndpointID string `json:"endpointId"`

	// OperationType is query, mutation, or subscription.
	OperationType string `json:"operationType"`

	// OperationName is the effective operation name, possibly empty for
	// anonymous operations.
	OperationName string `json:"operationName,omitempty"`

	// Query is the raw query document as received.
	Query string `json:"query"`

	// Variables are the request variables, if any.
	Variables map[string]any `json:"variables,omitempty"`

	// ResolverName names the resolver that served the operation, empty
	// when none matched.
	ResolverName string `json:"resolverName,omitempty"`

	// HadErrors reports whether the response carried GraphQL errors.
	HadErrors bool `json:"hadErrors"`

	// ResponseTime is the observed handling time in milliseconds.
	ResponseTime int `json:"responseTime"`

	Timestamp time.Time `json:"timestamp"`
}

// OperationFilter narrows an OperationLog.List call.
type OperationFilter struct {
	EndpointID    string
	OperationType string
	Limit         int
}

// OperationLog is a ring buffer of GraphQL operation entries.
type OperationLog struct {
	entries    []*OperationEntry
	maxEntries int
	mu         sync.RWMutex
}

// NewOperationLog creates an OperationLog holding at most maxEntries entries.
func NewOperationLog(maxEntries int) *OperationLog {
	if maxEntries <= 0 {
		maxEntries = DefaultCapacity
	}
	return &OperationLog{
		entries:    make([]*OperationEntry, 0, maxEntries),
		maxEntries: maxEntries,
	}
}

// Log appends an operation entry, assigning an ID and timestamp when unset.
func (l *OperationLog) Log(entry *OperationEntry) {
	if entry == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.ID == "" {
		entry.ID = id.Sequential("op")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if len(l.entries) >= l.maxEntries {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, entry)
}

// List returns operation entries newest-first, optionally filtered.
func (l *OperationLog) List(filter *OperationFilter) []*OperationEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*OperationEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		entry := l.entries[i]
		if filter != nil {
			if filter.EndpointID != "" && entry.EndpointID != filter.EndpointID {
				continue
			}
			if filter.OperationType != "" && entry.OperationType != filter.OperationType {
				continue
			}
		}
		result = append(result, entry)
	}

	if filter != nil && filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result
}

// Clear removes all operation entries.
func (l *OperationLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make([]*OperationEntry, 0, l.maxEntries)
}

// Count returns the number of stored operation entries.
func (l *OperationLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
