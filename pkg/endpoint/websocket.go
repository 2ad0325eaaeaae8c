package endpoint

import (
	"strings"
	"time"
)

// WSMatchType selects how a message pattern matches incoming frames.
type WSMatchType string

const (
	WSMatchExact    WSMatchType = "exact"
	WSMatchContains WSMatchType = "contains"
	WSMatchRegex    WSMatchType = "regex"
	WSMatchJSONPath WSMatchType = "json-path"
)

// WSResponse is a message the server sends over a WebSocket connection.
// When Broadcast is set it goes to every open connection on the endpoint,
// otherwise only to the connection that triggered it.
type WSResponse struct {
	// Type hints at the payload kind (text or json); informational only
	Type string `json:"type,omitempty" yaml:"type,omitempty"`

	// Data is the payload; non-string values are JSON-encoded on send
	Data any `json:"data" yaml:"data"`

	// Delay postpones the send by this many milliseconds
	Delay int `json:"delay,omitempty" yaml:"delay,omitempty"`

	Broadcast bool `json:"broadcast,omitempty" yaml:"broadcast,omitempty"`
}

// MessagePattern matches incoming frames and answers them. Patterns are
// scanned in order; the first match wins. For json-path the pattern has the
// form "dotted.path=expected".
type MessagePattern struct {
	Name      string      `json:"name,omitempty" yaml:"name,omitempty"`
	MatchType WSMatchType `json:"matchType" yaml:"matchType"`
	Pattern   string      `json:"pattern" yaml:"pattern"`
	Response  *WSResponse `json:"response,omitempty" yaml:"response,omitempty"`
}

// ScheduledMessage fires its response to all of the endpoint's open
// connections every Interval milliseconds while enabled.
type ScheduledMessage struct {
	ID       string      `json:"id,omitempty" yaml:"id,omitempty"`
	Interval int         `json:"interval" yaml:"interval"`
	Enabled  *bool       `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Response *WSResponse `json:"response" yaml:"response"`
}

// IsEnabled reports whether the scheduled message fires. Unset counts as
// enabled.
func (s *ScheduledMessage) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// WebSocketEndpoint is a mock WebSocket server path. Clients connect at
// /ws/<path>; the /ws prefix is stripped before matching.
type WebSocketEndpoint struct {
	ID string `json:"id" yaml:"id"`

	// Path is normalised to begin with a slash
	Path string `json:"path" yaml:"path"`

	// Active gates new connections and message handling (unset = active)
	Active *bool `json:"active,omitempty" yaml:"active,omitempty"`

	MessagePatterns []MessagePattern `json:"messagePatterns,omitempty" yaml:"messagePatterns,omitempty"`

	// OnConnectMessage is delivered right after a connection registers
	OnConnectMessage *WSResponse `json:"onConnectMessage,omitempty" yaml:"onConnectMessage,omitempty"`

	// OnDisconnectMessage is broadcast to the remaining connections when
	// one disconnects
	OnDisconnectMessage *WSResponse `json:"onDisconnectMessage,omitempty" yaml:"onDisconnectMessage,omitempty"`

	ScheduledMessages []ScheduledMessage `json:"scheduledMessages,omitempty" yaml:"scheduledMessages,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// IsActive reports whether the endpoint accepts connections. Unset counts
// as active.
func (w *WebSocketEndpoint) IsActive() bool {
	return w.Active == nil || *w.Active
}

// Normalize ensures the path begins with a slash.
func (w *WebSocketEndpoint) Normalize() {
	if w.Path != "" && !strings.HasPrefix(w.Path, "/") {
		w.Path = "/" + w.Path
	}
}
