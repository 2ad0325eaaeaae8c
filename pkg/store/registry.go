package store

import (
	"strings"
	"sync"
	"time"

	"github.com/mockbird/mockbird/internal/id"
	"github.com/mockbird/mockbird/internal/matching"
	"github.com/mockbird/mockbird/pkg/endpoint"
)

// maxHistory bounds the global mutation trail; the oldest entries are
// discarded first.
const maxHistory = 1000

// Registry is the in-memory endpoint store. A single RWMutex guards
// the maps; reads take the read lock, admin mutations the write lock.
// Insertion order is preserved because the matcher depends on it.
type Registry struct {
	mu       sync.RWMutex
	byID     map[string]*endpoint.Endpoint
	order    []string
	patterns map[string]matching.Pattern
	history  []*endpoint.HistoryEntry

	onChange func()
	now      func() time.Time
}

var _ Store = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[string]*endpoint.Endpoint),
		patterns: make(map[string]matching.Pattern),
		now:      time.Now,
	}
}

// OnChange registers a callback invoked after every mutation, outside
// the registry lock. The persistence layer uses it to schedule
// snapshots.
func (r *Registry) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Registry) notify() {
	r.mu.RLock()
	fn := r.onChange
	r.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Create registers an endpoint. A missing ID is assigned; a supplied
// ID must be free. Timestamps are stamped here.
func (r *Registry) Create(ep *endpoint.Endpoint) (*endpoint.Endpoint, error) {
	stored := ep.Clone()
	stored.Normalize()
	if stored.ID == "" {
		stored.ID = id.New("ep")
	}

	now := r.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.mu.Lock()
	if _, exists := r.byID[stored.ID]; exists {
		r.mu.Unlock()
		return nil, ErrAlreadyExists
	}
	r.byID[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	r.patterns[stored.ID] = matching.CompilePattern(stored.Path)
	r.appendHistoryLocked(&endpoint.HistoryEntry{
		EndpointID: stored.ID,
		Action:     endpoint.ActionCreated,
		Snapshot:   stored.Clone(),
	})
	r.mu.Unlock()

	r.notify()
	return stored.Clone(), nil
}

// Get returns a copy of the endpoint with the given ID.
func (r *Registry) Get(epID string) (*endpoint.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ep, ok := r.byID[epID]
	if !ok {
		return nil, ErrNotFound
	}
	return ep.Clone(), nil
}

// List returns copies of all endpoints in insertion order.
func (r *Registry) List() []*endpoint.Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*endpoint.Endpoint, 0, len(r.order))
	for _, epID := range r.order {
		out = append(out, r.byID[epID].Clone())
	}
	return out
}

// Update replaces an endpoint's definition. The stored ID and creation
// time survive; updatedAt is bumped and a history entry records the
// field-level diff.
func (r *Registry) Update(epID string, ep *endpoint.Endpoint) (*endpoint.Endpoint, error) {
	stored := ep.Clone()
	stored.Normalize()

	r.mu.Lock()
	existing, ok := r.byID[epID]
	if !ok {
		r.mu.Unlock()
		return nil, ErrNotFound
	}

	stored.ID = epID
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = r.now()

	r.byID[epID] = stored
	r.patterns[epID] = matching.CompilePattern(stored.Path)
	r.appendHistoryLocked(&endpoint.HistoryEntry{
		EndpointID: epID,
		Action:     endpoint.ActionUpdated,
		Snapshot:   stored.Clone(),
		Changes:    endpoint.Diff(existing, stored),
	})
	r.mu.Unlock()

	r.notify()
	return stored.Clone(), nil
}

// Delete removes an endpoint, recording its final state in history.
func (r *Registry) Delete(epID string) error {
	r.mu.Lock()
	existing, ok := r.byID[epID]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}

	delete(r.byID, epID)
	delete(r.patterns, epID)
	for i, oid := range r.order {
		if oid == epID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.appendHistoryLocked(&endpoint.HistoryEntry{
		EndpointID: epID,
		Action:     endpoint.ActionDeleted,
		Snapshot:   existing.Clone(),
	})
	r.mu.Unlock()

	r.notify()
	return nil
}

// FindByPath resolves a request to an endpoint. Among active endpoints
// of the method, the first exact-path pattern wins; otherwise the first
// parametric match in insertion order.
func (r *Registry) FindByPath(method, path string) (*endpoint.Endpoint, map[string]string, bool) {
	method = strings.ToUpper(method)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var paramMatch *endpoint.Endpoint
	var paramBindings map[string]string

	for _, epID := range r.order {
		ep := r.byID[epID]
		if !ep.IsActive() || !strings.EqualFold(ep.Method, method) {
			continue
		}
		pattern := r.patterns[epID]
		params, ok := pattern.Match(path)
		if !ok {
			continue
		}
		if pattern.IsExact() {
			return ep.Clone(), params, true
		}
		if paramMatch == nil {
			paramMatch = ep
			paramBindings = params
		}
	}

	if paramMatch != nil {
		return paramMatch.Clone(), paramBindings, true
	}
	return nil, nil, false
}

// Count returns the number of registered endpoints.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Replace swaps the registry content wholesale. History is not
// rewritten; snapshot loading happens before traffic, import is
// recorded by its caller.
func (r *Registry) Replace(eps []*endpoint.Endpoint) {
	byID := make(map[string]*endpoint.Endpoint, len(eps))
	order := make([]string, 0, len(eps))
	patterns := make(map[string]matching.Pattern, len(eps))

	for _, ep := range eps {
		stored := ep.Clone()
		stored.Normalize()
		if stored.ID == "" {
			stored.ID = id.New("ep")
		}
		if _, dup := byID[stored.ID]; dup {
			continue
		}
		byID[stored.ID] = stored
		order = append(order, stored.ID)
		patterns[stored.ID] = matching.CompilePattern(stored.Path)
	}

	r.mu.Lock()
	r.byID = byID
	r.order = order
	r.patterns = patterns
	r.mu.Unlock()

	r.notify()
}

// History returns one endpoint's mutation trail, newest first.
func (r *Registry) History(epID string) []*endpoint.HistoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*endpoint.HistoryEntry
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].EndpointID == epID {
			out = append(out, cloneHistoryEntry(r.history[i]))
		}
	}
	return out
}

// AllHistory returns the global mutation trail, newest first. A
// positive limit truncates the result.
func (r *Registry) AllHistory(limit int) []*endpoint.HistoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.history)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*endpoint.HistoryEntry, 0, n)
	for i := len(r.history) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, cloneHistoryEntry(r.history[i]))
	}
	return out
}

// Restore rewrites an endpoint to a history snapshot. A deleted
// endpoint is re-created under its original ID.
func (r *Registry) Restore(historyID string) (*endpoint.Endpoint, error) {
	r.mu.Lock()

	var entry *endpoint.HistoryEntry
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].ID == historyID {
			entry = r.history[i]
			break
		}
	}
	if entry == nil {
		r.mu.Unlock()
		return nil, ErrHistoryNotFound
	}
	if entry.Snapshot == nil {
		r.mu.Unlock()
		return nil, ErrNoSnapshot
	}

	restored := entry.Snapshot.Clone()
	restored.UpdatedAt = r.now()

	if _, exists := r.byID[restored.ID]; !exists {
		r.order = append(r.order, restored.ID)
	}
	r.byID[restored.ID] = restored
	r.patterns[restored.ID] = matching.CompilePattern(restored.Path)
	r.appendHistoryLocked(&endpoint.HistoryEntry{
		EndpointID: restored.ID,
		Action:     endpoint.ActionRestored,
		Snapshot:   restored.Clone(),
	})
	r.mu.Unlock()

	r.notify()
	return restored.Clone(), nil
}

// appendHistoryLocked stamps and appends an entry; the caller holds the
// write lock.
func (r *Registry) appendHistoryLocked(entry *endpoint.HistoryEntry) {
	entry.ID = id.New("hist")
	entry.Timestamp = r.now()
	r.history = append(r.history, entry)
	if len(r.history) > maxHistory {
		r.history = r.history[len(r.history)-maxHistory:]
	}
}

func cloneHistoryEntry(e *endpoint.HistoryEntry) *endpoint.HistoryEntry {
	out := *e
	if e.Snapshot != nil {
		out.Snapshot = e.Snapshot.Clone()
	}
	if e.Changes != nil {
		out.Changes = make(map[string]endpoint.FieldChange, len(e.Changes))
		for k, v := range e.Changes {
			out.Changes[k] = v
		}
	}
	return &out
}
