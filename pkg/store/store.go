// Package store keeps the registry of HTTP mock endpoints together
// with their mutation history. The registry is the single authority on
// endpoint state: the request pipeline reads from it, only admin
// operations mutate it, and a persistence wrapper (pkg/store/file)
// snapshots it to disk after each mutation.
package store

import (
	"errors"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

// Common errors
var (
	// ErrNotFound means no endpoint has the requested ID.
	ErrNotFound = errors.New("endpoint not found")

	// ErrAlreadyExists rejects creating an endpoint whose explicit ID
	// is already taken.
	ErrAlreadyExists = errors.New("endpoint already exists")

	// ErrHistoryNotFound means no history entry has the requested ID.
	ErrHistoryNotFound = errors.New("history entry not found")

	// ErrNoSnapshot means the history entry carries no endpoint
	// snapshot to restore from.
	ErrNoSnapshot = errors.New("history entry has no snapshot")
)

// Store is the endpoint registry contract shared by the in-memory
// registry and its persistent wrapper. Implementations return deep
// copies; mutating a returned endpoint never alters stored state.
type Store interface {
	// Create registers an endpoint, assigning an ID when absent.
	Create(ep *endpoint.Endpoint) (*endpoint.Endpoint, error)

	// Get returns the endpoint with the given ID.
	Get(id string) (*endpoint.Endpoint, error)

	// List returns all endpoints in insertion order.
	List() []*endpoint.Endpoint

	// Update replaces an endpoint's definition, preserving its ID and
	// creation time.
	Update(id string, ep *endpoint.Endpoint) (*endpoint.Endpoint, error)

	// Delete removes an endpoint.
	Delete(id string) error

	// FindByPath resolves a request to the first matching active
	// endpoint and its bound path parameters. An exact-path pattern
	// wins over any parametric one.
	FindByPath(method, path string) (*endpoint.Endpoint, map[string]string, bool)

	// Count returns the number of registered endpoints.
	Count() int

	// Replace swaps the entire registry content, used by snapshot
	// loading and collection import.
	Replace(eps []*endpoint.Endpoint)

	// History returns one endpoint's mutation trail, newest first.
	History(endpointID string) []*endpoint.HistoryEntry

	// AllHistory returns the global mutation trail, newest first,
	// truncated to limit when positive.
	AllHistory(limit int) []*endpoint.HistoryEntry

	// Restore rewrites an endpoint to a history snapshot, re-creating
	// the endpoint when it was deleted.
	Restore(historyID string) (*endpoint.Endpoint, error)
}
