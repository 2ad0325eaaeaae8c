package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mockbird/mockbird/internal/id"
	"github.com/mockbird/mockbird/pkg/endpoint"
	"github.com/mockbird/mockbird/pkg/requestlog"
)

var (
	// ErrEndpointNotFound is returned when no endpoint has the given ID.
	ErrEndpointNotFound = errors.New("graphql endpoint not found")

	// ErrEndpointExists is returned when creating an endpoint whose ID is
	// already registered.
	ErrEndpointExists = errors.New("graphql endpoint already exists")

	// ErrPathRequired is returned when an endpoint has no path.
	ErrPathRequired = errors.New("graphql endpoint path is required")

	// ErrPathTaken is returned when another endpoint already serves the path.
	ErrPathTaken = errors.New("graphql endpoint path already in use")

	// ErrResolverNotFound is returned when no resolver has the given
	// operation name.
	ErrResolverNotFound = errors.New("resolver not found")

	// ErrResolverExists is returned when adding a resolver whose operation
	// name is already registered on the endpoint.
	ErrResolverExists = errors.New("resolver already exists")

	// ErrResolverNameRequired is returned when a resolver has no operation
	// name.
	ErrResolverNameRequired = errors.New("resolver operationName is required")
)

// Engine owns the GraphQL endpoint registry and executes operations
// against it. All accessors return deep copies, so callers never share
// memory with the registry.
type Engine struct {
	mu     sync.RWMutex
	byID   map[string]*endpoint.GraphQLEndpoint
	order  []string
	byPath map[string]string

	log *requestlog.OperationLog
	now func() time.Time
}

// NewEngine creates an empty engine with an operation log capped at
// requestlog.DefaultCapacity entries.
func NewEngine() *Engine {
	return &Engine{
		byID:   make(map[string]*endpoint.GraphQLEndpoint),
		byPath: make(map[string]string),
		log:    requestlog.NewOperationLog(requestlog.DefaultCapacity),
		now:    time.Now,
	}
}

// Log returns the engine's operation log.
func (e *Engine) Log() *requestlog.OperationLog {
	return e.log
}

// CreateEndpoint registers a GraphQL endpoint. An ID is assigned when
// the endpoint does not carry one.
func (e *Engine) CreateEndpoint(ep *endpoint.GraphQLEndpoint) (*endpoint.GraphQLEndpoint, error) {
	if ep == nil || ep.Path == "" {
		return nil, ErrPathRequired
	}

	stored := ep.Clone()
	stored.Normalize()

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.byPath[stored.Path]; exists {
		return nil, ErrPathTaken
	}
	if stored.ID == "" {
		stored.ID = id.New("gql")
	} else if _, exists := e.byID[stored.ID]; exists {
		return nil, ErrEndpointExists
	}

	ts := e.now()
	stored.CreatedAt = ts
	stored.UpdatedAt = ts

	e.byID[stored.ID] = stored
	e.order = append(e.order, stored.ID)
	e.byPath[stored.Path] = stored.ID
	return stored.Clone(), nil
}

// GetEndpoint returns the endpoint with the given ID.
func (e *Engine) GetEndpoint(endpointID string) (*endpoint.GraphQLEndpoint, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ep, ok := e.byID[endpointID]
	if !ok {
		return nil, ErrEndpointNotFound
	}
	return ep.Clone(), nil
}

// ListEndpoints returns all endpoints in registration order.
func (e *Engine) ListEndpoints() []*endpoint.GraphQLEndpoint {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]*endpoint.GraphQLEndpoint, 0, len(e.order))
	for _, endpointID := range e.order {
		result = append(result, e.byID[endpointID].Clone())
	}
	return result
}

// UpdateEndpoint replaces the endpoint with the given ID, preserving its
// identity and creation time.
func (e *Engine) UpdateEndpoint(endpointID string, ep *endpoint.GraphQLEndpoint) (*endpoint.GraphQLEndpoint, error) {
	if ep == nil || ep.Path == "" {
		return nil, ErrPathRequired
	}

	stored := ep.Clone()
	stored.Normalize()

	e.mu.Lock()
	defer e.mu.Unlock()

	current, ok := e.byID[endpointID]
	if !ok {
		return nil, ErrEndpointNotFound
	}
	if otherID, exists := e.byPath[stored.Path]; exists && otherID != endpointID {
		return nil, ErrPathTaken
	}

	stored.ID = endpointID
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = e.now()

	delete(e.byPath, current.Path)
	e.byID[endpointID] = stored
	e.byPath[stored.Path] = endpointID
	return stored.Clone(), nil
}

// DeleteEndpoint removes the endpoint with the given ID.
func (e *Engine) DeleteEndpoint(endpointID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ep, ok := e.byID[endpointID]
	if !ok {
		return ErrEndpointNotFound
	}

	delete(e.byID, endpointID)
	delete(e.byPath, ep.Path)
	for i, oid := range e.order {
		if oid == endpointID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

// EndpointByPath returns the endpoint serving the given URL path.
func (e *Engine) EndpointByPath(path string) (*endpoint.GraphQLEndpoint, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	endpointID, ok := e.byPath[path]
	if !ok {
		return nil, false
	}
	return e.byID[endpointID].Clone(), true
}

// ReplaceAll swaps the registry contents, assigning IDs where missing.
// Endpoints without a path, or whose path or ID duplicates an earlier
// entry, are skipped. Used when loading collection files at startup.
func (e *Engine) ReplaceAll(eps []*endpoint.GraphQLEndpoint) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.byID = make(map[string]*endpoint.GraphQLEndpoint, len(eps))
	e.byPath = make(map[string]string, len(eps))
	e.order = e.order[:0]

	ts := e.now()
	for _, ep := range eps {
		if ep == nil || ep.Path == "" {
			continue
		}
		stored := ep.Clone()
		stored.Normalize()
		if stored.ID == "" {
			stored.ID = id.New("gql")
		}
		if _, exists := e.byID[stored.ID]; exists {
			continue
		}
		if _, exists := e.byPath[stored.Path]; exists {
			continue
		}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = ts
		}
		if stored.UpdatedAt.IsZero() {
			stored.UpdatedAt = ts
		}
		e.byID[stored.ID] = stored
		e.order = append(e.order, stored.ID)
		e.byPath[stored.Path] = stored.ID
	}
	return len(e.order)
}

// Count returns the number of registered endpoints.
func (e *Engine) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.byID)
}

// AddResolver appends a resolver to an endpoint.
func (e *Engine) AddResolver(endpointID string, r endpoint.Resolver) (*endpoint.GraphQLEndpoint, error) {
	if r.OperationName == "" {
		return nil, ErrResolverNameRequired
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ep, ok := e.byID[endpointID]
	if !ok {
		return nil, ErrEndpointNotFound
	}
	if ep.FindResolver(r.OperationName) != nil {
		return nil, ErrResolverExists
	}

	ep.Resolvers = append(ep.Resolvers, r)
	ep.UpdatedAt = e.now()
	return ep.Clone(), nil
}

// UpdateResolver replaces the resolver with the given operation name.
// The replacement may rename the resolver as long as the new name is
// free on the endpoint.
func (e *Engine) UpdateResolver(endpointID, operationName string, r endpoint.Resolver) (*endpoint.GraphQLEndpoint, error) {
	if r.OperationName == "" {
		r.OperationName = operationName
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ep, ok := e.byID[endpointID]
	if !ok {
		return nil, ErrEndpointNotFound
	}

	idx := -1
	for i := range ep.Resolvers {
		if ep.Resolvers[i].OperationName == operationName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrResolverNotFound
	}
	if r.OperationName != operationName && ep.FindResolver(r.OperationName) != nil {
		return nil, ErrResolverExists
	}

	ep.Resolvers[idx] = r
	ep.UpdatedAt = e.now()
	return ep.Clone(), nil
}

// DeleteResolver removes the resolver with the given operation name.
func (e *Engine) DeleteResolver(endpointID, operationName string) (*endpoint.GraphQLEndpoint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ep, ok := e.byID[endpointID]
	if !ok {
		return nil, ErrEndpointNotFound
	}

	for i := range ep.Resolvers {
		if ep.Resolvers[i].OperationName == operationName {
			ep.Resolvers = append(ep.Resolvers[:i], ep.Resolvers[i+1:]...)
			ep.UpdatedAt = e.now()
			return ep.Clone(), nil
		}
	}
	return nil, ErrResolverNotFound
}

// Execution is the outcome of running one operation: the wire response
// plus the metadata the operation log records.
type Execution struct {
	Response      *endpoint.GraphQLResponse
	ResolverName  string
	OperationType endpoint.OperationType
	OperationName string
}

// Execute runs a request against an endpoint snapshot. It never fails:
// operations no resolver matches produce the endpoint's default
// response, or a "no resolver found" error envelope.
func (e *Engine) Execute(ctx context.Context, ep *endpoint.GraphQLEndpoint, req *Request) *Execution {
	op := req.Operation()

	exec := &Execution{
		OperationType: op.Type,
		OperationName: op.Name,
	}

	for i := range ep.Resolvers {
		r := &ep.Resolvers[i]
		if !r.IsEnabled() || !resolverMatches(r, op, req.Variables) {
			continue
		}

		exec.ResolverName = r.OperationName
		if r.Delay > 0 {
			select {
			case <-ctx.Done():
				exec.Response = &endpoint.GraphQLResponse{
					Errors: []endpoint.GraphQLError{{Message: "request cancelled"}},
				}
				return exec
			case <-time.After(time.Duration(r.Delay) * time.Millisecond):
			}
		}

		exec.Response = &endpoint.GraphQLResponse{
			Data:   r.ResponseData,
			Errors: r.Errors,
		}
		return exec
	}

	if ep.DefaultResponse != nil {
		exec.Response = ep.DefaultResponse
		return exec
	}

	exec.Response = &endpoint.GraphQLResponse{
		Errors: []endpoint.GraphQLError{{
			Message: fmt.Sprintf("No resolver found for operation: %s (%s)", op.Name, op.Type),
		}},
	}
	return exec
}

// resolverMatches applies the three match criteria: operation name when
// the request has an effective one, operation type when both sides
// declare one, and variablesMatch as a subset of the request variables.
func resolverMatches(r *endpoint.Resolver, op Operation, variables map[string]any) bool {
	if op.Name != "" && r.OperationName != op.Name {
		return false
	}
	if op.Type != "" && r.OperationType != "" && r.OperationType != op.Type {
		return false
	}
	for key, expected := range r.VariablesMatch {
		actual, ok := variables[key]
		if !ok {
			return false
		}
		if !valueEqual(expected, actual) {
			return false
		}
	}
	return true
}

// valueEqual compares two values through their JSON encoding, so an int
// from a YAML collection file and a float64 from a request body compare
// equal when they encode the same number.
func valueEqual(a, b any) bool {
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
