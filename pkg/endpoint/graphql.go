package endpoint

import (
	"strings"
	"time"
)

// OperationType is a GraphQL operation kind.
type OperationType string

const (
	OperationQuery        OperationType = "query"
	OperationMutation     OperationType = "mutation"
	OperationSubscription OperationType = "subscription"
)

// GraphQLError is an entry for the errors array of a GraphQL response.
type GraphQLError struct {
	Message    string         `json:"message" yaml:"message"`
	Path       []any          `json:"path,omitempty" yaml:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

// Resolver answers a GraphQL operation by name. Resolvers are scanned in
// order; the first enabled one whose name, type, and variables all match
// wins.
type Resolver struct {
	// OperationName identifies the resolver; admin resolver routes address
	// it by this name
	OperationName string `json:"operationName" yaml:"operationName"`

	// OperationType restricts the match to query, mutation, or
	// subscription when set
	OperationType OperationType `json:"operationType,omitempty" yaml:"operationType,omitempty"`

	// VariablesMatch requires every listed variable to be present in the
	// request with an identical value
	VariablesMatch map[string]any `json:"variablesMatch,omitempty" yaml:"variablesMatch,omitempty"`

	// ResponseData becomes the data field of the reply
	ResponseData any `json:"responseData,omitempty" yaml:"responseData,omitempty"`

	// Errors becomes the errors field of the reply when non-empty
	Errors []GraphQLError `json:"errors,omitempty" yaml:"errors,omitempty"`

	// Delay postpones the reply by this many milliseconds
	Delay int `json:"delay,omitempty" yaml:"delay,omitempty"`

	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the resolver participates in matching. Unset
// counts as enabled.
func (r *Resolver) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// GraphQLResponse is the reply body for a GraphQL request.
type GraphQLResponse struct {
	Data   any            `json:"data,omitempty" yaml:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// GraphQLEndpoint is a mock GraphQL server path. Any POST to the path is
// treated as a GraphQL request.
type GraphQLEndpoint struct {
	ID string `json:"id" yaml:"id"`

	// Path is normalised to begin with a slash
	Path string `json:"path" yaml:"path"`

	// Active gates request handling (unset = active)
	Active *bool `json:"active,omitempty" yaml:"active,omitempty"`

	Resolvers []Resolver `json:"resolvers,omitempty" yaml:"resolvers,omitempty"`

	// DefaultResponse answers operations no resolver matched
	DefaultResponse *GraphQLResponse `json:"defaultResponse,omitempty" yaml:"defaultResponse,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// IsActive reports whether the endpoint answers requests. Unset counts as
// active.
func (g *GraphQLEndpoint) IsActive() bool {
	return g.Active == nil || *g.Active
}

// Normalize ensures the path begins with a slash.
func (g *GraphQLEndpoint) Normalize() {
	if g.Path != "" && !strings.HasPrefix(g.Path, "/") {
		g.Path = "/" + g.Path
	}
}

// FindResolver returns the resolver with the given operation name, or nil.
func (g *GraphQLEndpoint) FindResolver(operationName string) *Resolver {
	for i := range g.Resolvers {
		if g.Resolvers[i].OperationName == operationName {
			return &g.Resolvers[i]
		}
	}
	return nil
}
