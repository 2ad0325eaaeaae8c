package requestlog

import "time"

// Logger is the minimal interface for appending request entries. The
// dispatcher and the protocol handlers accept this interface so they can
// record traffic without caring how it is stored.
type Logger interface {
	Log(entry *Entry)
}

// Store is the query side of the request log, backing the admin API.
// Store embeds Logger, so any Store can be used where Logger is expected.
type Store interface {
	Logger

	// Get retrieves an entry by ID, or nil.
	Get(id string) *Entry

	// List returns entries newest-first, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all entries.
	Clear()

	// Count returns the number of stored entries.
	Count() int

	// Stats summarises the stored entries.
	Stats() *Stats
}

// Filter narrows a List call. Zero values mean "no constraint".
type Filter struct {
	// EndpointID matches exactly, including the not-found and error
	// sentinels.
	EndpointID string

	// Method matches the HTTP method exactly.
	Method string

	// Status matches the response status exactly.
	Status int

	// Path matches entries whose path contains this substring.
	Path string

	// Since and Until bound the entry timestamp (inclusive).
	Since time.Time
	Until time.Time

	// Limit caps the number of returned entries; 0 means no cap.
	Limit int

	// Offset skips that many entries after filtering.
	Offset int
}

// Subscriber receives new entries as they are appended.
type Subscriber chan *Entry

// SubscribableStore extends Store with live tailing for streaming admin
// surfaces.
type SubscribableStore interface {
	Store

	// Subscribe registers a subscriber. The returned function removes it
	// and closes the channel. Slow subscribers miss entries rather than
	// blocking the data path.
	Subscribe() (Subscriber, func())
}
