// Package requestlog captures request/response traffic for user inspection
// via the admin API. It is distinct from operational logging, which uses the
// logging package for platform debugging.
//
// Three independent ring buffers are kept, one per traffic kind: Entry for
// HTTP mock requests, MessageEntry for WebSocket messages, and OperationEntry
// for GraphQL operations. Each buffer evicts oldest-first at capacity and
// lists newest-first.
//
// The dispatcher appends entries as requests complete; the admin API queries
// them. Appending is best-effort from the caller's point of view: it never
// fails the request being logged.
//
//	store := requestlog.NewMemoryStore(1000)
//	store.Log(&requestlog.Entry{
//		EndpointID:     ep.ID,
//		Method:         "GET",
//		Path:           "/api/users/42",
//		ResponseStatus: 200,
//	})
package requestlog
