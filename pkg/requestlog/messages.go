package requestlog

import (
	"sync"
	"time"

	"github.com/mockbird/mockbird/internal/id"
)

// MessageDirection classifies a logged WebSocket message.
type MessageDirection string

const (
	// DirectionIncoming is a message received from a client.
	DirectionIncoming MessageDirection = "incoming"

	// DirectionOutgoing is a message sent to one or more clients.
	DirectionOutgoing MessageDirection = "outgoing"

	// DirectionSystem covers lifecycle events such as connect and
	// disconnect notices.
	DirectionSystem MessageDirection = "system"
)

// MessageEntry is one logged WebSocket message or lifecycle event.
type MessageEntry struct {
	ID           string           `json:"id"`
	ConnectionID string           `json:"connectionId"`
	EndpointID   string           `json:"endpointId"`
	Direction    MessageDirection `json:"direction"`

	// MessageType is "json" when the payload parses as JSON, else "text".
	MessageType string `json:"messageType"`

	// Message is the parsed payload for JSON messages, the raw string
	// otherwise.
	Message   any       `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageFilter narrows a MessageLog.List call.
type MessageFilter struct {
	EndpointID   string
	ConnectionID string
	Direction    MessageDirection
	Limit        int
}

// MessageStats summarises WebSocket traffic for the admin stats endpoint.
type MessageStats struct {
	Total    int `json:"total"`
	Incoming int `json:"incoming"`
	Outgoing int `json:"outgoing"`
	System   int `json:"system"`
}

// MessageLog is a ring buffer of WebSocket message entries.
type MessageLog struct {
	entries    []*MessageEntry
	maxEntries int
	mu         sync.RWMutex
}

// NewMessageLog creates a MessageLog holding at most maxEntries entries.
func NewMessageLog(maxEntries int) *MessageLog {
	if maxEntries <= 0 {
		maxEntries = DefaultCapacity
	}
	return &MessageLog{
		entries:    make([]*MessageEntry, 0, maxEntries),
		maxEntries: maxEntries,
	}
}

// Log appends a message entry, assigning an ID and timestamp when unset.
func (l *MessageLog) Log(entry *MessageEntry) {
	if entry == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.ID == "" {
		entry.ID = id.Sequential("msg")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if len(l.entries) >= l.maxEntries {
		l.entries = l.entries[1:]
	}
	l.entries = append(l.entries, entry)
}

// List returns message entries newest-first, optionally filtered.
func (l *MessageLog) List(filter *MessageFilter) []*MessageEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*MessageEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		entry := l.entries[i]
		if filter != nil {
			if filter.EndpointID != "" && entry.EndpointID != filter.EndpointID {
				continue
			}
			if filter.ConnectionID != "" && entry.ConnectionID != filter.ConnectionID {
				continue
			}
			if filter.Direction != "" && entry.Direction != filter.Direction {
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

// Clear removes all message entries.
func (l *MessageLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make([]*MessageEntry, 0, l.maxEntries)
}

// Count returns the number of stored message entries.
func (l *MessageLog) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Stats computes per-direction counts.
func (l *MessageLog) Stats() *MessageStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := &MessageStats{Total: len(l.entries)}
	for _, entry := range l.entries {
		switch entry.Direction {
		case DirectionIncoming:
			stats.Incoming++
		case DirectionOutgoing:
			stats.Outgoing++
		case DirectionSystem:
			stats.System++
		}
	}
	return stats
}
