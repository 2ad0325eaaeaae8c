package graphql

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

func boolPtr(b bool) *bool { return &b }

func userResolver() endpoint.Resolver {
	return endpoint.Resolver{
		OperationName: "GetUser",
		OperationType: endpoint.OperationQuery,
		ResponseData:  map[string]any{"user": map[string]any{"id": "1", "name": "Ada"}},
	}
}

func TestEngineCreateEndpoint(t *testing.T) {
	e := NewEngine()

	created, err := e.CreateEndpoint(&endpoint.GraphQLEndpoint{Path: "graphql"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "/graphql", created.Path, "path is normalised")
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	_, err = e.CreateEndpoint(&endpoint.GraphQLEndpoint{Path: "/graphql"})
	assert.ErrorIs(t, err, ErrPathTaken)

	_, err = e.CreateEndpoint(&endpoint.GraphQLEndpoint{})
	assert.ErrorIs(t, err, ErrPathRequired)
}

func TestEngineGetClonesOut(t *testing.T) {
	e := NewEngine()
	created, err := e.CreateEndpoint(&endpoint.GraphQLEndpoint{Path: "/graphql", Resolvers: []endpoint.Resolver{userResolver()}})
	require.NoError(t, err)

	got, err := e.GetEndpoint(created.ID)
	require.NoError(t, err)
	got.Resolvers[0].OperationName = "mutated"

	again, err := e.GetEndpoint(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "GetUser", again.Resolvers[0].OperationName)

	_, err = e.GetEndpoint("missing")
	assert.ErrorIs(t, err, ErrEndpointNotFound)
}

func TestEngineUpdateEndpointReindexesPath(t *testing.T) {
	e := NewEngine()
	created, err := e.CreateEndpoint(&endpoint.GraphQLEndpoint{Path: "/old"})
	require.NoError(t, err)

	updated, err := e.UpdateEndpoint(created.ID, &endpoint.GraphQLEndpoint{Path: "/new"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, ok := e.EndpointByPath("/old")
	assert.False(t, ok)
	byPath, ok := e.EndpointByPath("/new")
	require.True(t, ok)
	assert.Equal(t, created.ID, byPath.ID)

	// The freed path is available again.
	_, err = e.CreateEndpoint(&endpoint.GraphQLEndpoint{Path: "/old"})
	assert.NoError(t, err)
}

func TestEngineUpdateEndpointPathConflict(t *testing.T) {
	e := NewEngine()
	first, err := e.CreateEndpoint(&endpoint.GraphQLEndpoint{Path: "/a"})
	require.NoError(t, err)
	_, err = e.CreateEndpoint(&endpoint.GraphQLEndpoint{Path: "/b"})
	require.NoError(t, err)

	_, err = e.UpdateEndpoint(first.ID, &endpoint.GraphQLEndpoint{Path: "/b"})
	assert.ErrorIs(t, err, ErrPathTaken)

	// Keeping its own path is not a conflict.
	_, err = e.UpdateEndpoint(first.ID, &endpoint.GraphQLEndpoint{Path: "/a"})
	assert.NoError(t, err)
}

func TestEngineDeleteEndpoint(t *testing.T) {
	e := NewEngine()
	created, err := e.CreateEndpoint(&endpoint.GraphQLEndpoint{Path: "/graphql"})
	require.NoError(t, err)

	require.NoError(t, e.DeleteEndpoint(created.ID))
	assert.Equal(t, 0, e.Count())
	_, ok := e.EndpointByPath("/graphql")
	assert.False(t, ok)

	assert.ErrorIs(t, e.DeleteEndpoint(created.ID), ErrEndpointNotFound)
}

func TestEngineListRegistrationOrder(t *testing.T) {
	e := NewEngine()
	for _, path := range []string{"/c", "/a", "/b"} {
		_, err := e.CreateEndpoint(&endpoint.GraphQLEndpoint{Path: path})
		require.NoError(t, err)
	}

	listed := e.ListEndpoints()
	require.Len(t, listed, 3)
	assert.Equal(t, "/c", listed[0].Path)
	assert.Equal(t, "/a", listed[1].Path)
	assert.Equal(t, "/b", listed[2].Path)
}

func TestEngineReplaceAll(t *testing.T) {
	e := NewEngine()
	_, err := e.CreateEndpoint(&endpoint.GraphQLEndpoint{Path: "/stale"})
	require.NoError(t, err)

	n := e.ReplaceAll([]*endpoint.GraphQLEndpoint{
		{Path: "/one"},
		{Path: ""},
		{Path: "/one"},
		{ID: "gql-fixed", Path: "/two"},
	})
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, e.Count())

	_, ok := e.EndpointByPath("/stale")
	assert.False(t, ok)
	got, ok := e.EndpointByPath("/two")
	require.True(t, ok)
	assert.Equal(t, "gql-fixed", got.ID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestEngineResolverCRUD(t *testing.T) {
	e := NewEngine()
	created, err := e.CreateEndpoint(&endpoint.GraphQLEndpoint{Path: "/graphql"})
	require.NoError(t, err)

	updated, err := e.AddResolver(created.ID, userResolver())
	require.NoError(t, err)
	require.Len(t, updated.Resolvers, 1)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	_, err = e.AddResolver(created.ID, userResolver())
	assert.ErrorIs(t, err, ErrResolverExists)
	_, err = e.AddResolver(created.ID, endpoint.Resolver{})
	assert.ErrorIs(t, err, ErrResolverNameRequired)
	_, err = e.AddResolver("missing", userResolver())
	assert.ErrorIs(t, err, ErrEndpointNotFound)

	// Update in place, then rename.
	r := userResolver()
	r.ResponseData = map[string]any{"user": nil}
	updated, err = e.UpdateResolver(created.ID, "GetUser", r)
	require.NoError(t, err)
	require.Len(t, updated.Resolvers, 1)
	assert.Equal(t, map[string]any{"user": nil}, updated.Resolvers[0].ResponseData)

	renamed := userResolver()
	renamed.OperationName = "FetchUser"
	updated, err = e.UpdateResolver(created.ID, "GetUser", renamed)
	require.NoError(t, err)
	assert.Equal(t, "FetchUser", updated.Resolvers[0].OperationName)

	_, err = e.UpdateResolver(created.ID, "GetUser", userResolver())
	assert.ErrorIs(t, err, ErrResolverNotFound)

	updated, err = e.DeleteResolver(created.ID, "FetchUser")
	require.NoError(t, err)
	assert.Empty(t, updated.Resolvers)
	_, err = e.DeleteResolver(created.ID, "FetchUser")
	assert.ErrorIs(t, err, ErrResolverNotFound)
}

func TestEngineUpdateResolverRenameConflict(t *testing.T) {
	e := NewEngine()
	created, err := e.CreateEndpoint(&endpoint.GraphQLEndpoint{Path: "/graphql"})
	require.NoError(t, err)

	_, err = e.AddResolver(created.ID, endpoint.Resolver{OperationName: "A"})
	require.NoError(t, err)
	_, err = e.AddResolver(created.ID, endpoint.Resolver{OperationName: "B"})
	require.NoError(t, err)

	_, err = e.UpdateResolver(created.ID, "A", endpoint.Resolver{OperationName: "B"})
	assert.ErrorIs(t, err, ErrResolverExists)
}

func TestExecuteMatchesByName(t *testing.T) {
	e := NewEngine()
	ep := &endpoint.GraphQLEndpoint{
		Path: "/graphql",
		Resolvers: []endpoint.Resolver{
			{OperationName: "Other", ResponseData: "wrong"},
			{OperationName: "GetUser", ResponseData: "right"},
		},
	}

	exec := e.Execute(context.Background(), ep, &Request{Query: `query GetUser { user { id } }`})
	assert.Equal(t, "GetUser", exec.ResolverName)
	assert.Equal(t, "right", exec.Response.Data)
	assert.Equal(t, endpoint.OperationQuery, exec.OperationType)
	assert.Equal(t, "GetUser", exec.OperationName)
}

func TestExecuteAnonymousMatchesFirstEnabled(t *testing.T) {
	e := NewEngine()
	ep := &endpoint.GraphQLEndpoint{
		Path: "/graphql",
		Resolvers: []endpoint.Resolver{
			{OperationName: "Disabled", ResponseData: "no", Enabled: boolPtr(false)},
			{OperationName: "First", ResponseData: "yes"},
		},
	}

	exec := e.Execute(context.Background(), ep, &Request{Query: `{ user { id } }`})
	assert.Equal(t, "First", exec.ResolverName)
	assert.Equal(t, "yes", exec.Response.Data)
}

func TestExecuteOperationTypeRestricts(t *testing.T) {
	e := NewEngine()
	ep := &endpoint.GraphQLEndpoint{
		Path: "/graphql",
		Resolvers: []endpoint.Resolver{
			{OperationName: "Save", OperationType: endpoint.OperationQuery, ResponseData: "query side"},
			{OperationName: "Save", OperationType: endpoint.OperationMutation, ResponseData: "mutation side"},
		},
	}

	exec := e.Execute(context.Background(), ep, &Request{Query: `mutation Save { save }`})
	assert.Equal(t, "mutation side", exec.Response.Data)

	// A resolver without a type answers any operation type.
	ep.Resolvers = []endpoint.Resolver{{OperationName: "Save", ResponseData: "untyped"}}
	exec = e.Execute(context.Background(), ep, &Request{Query: `mutation Save { save }`})
	assert.Equal(t, "untyped", exec.Response.Data)
}

func TestExecuteVariablesMatch(t *testing.T) {
	e := NewEngine()
	ep := &endpoint.GraphQLEndpoint{
		Path: "/graphql",
		Resolvers: []endpoint.Resolver{
			{
				OperationName:  "GetUser",
				VariablesMatch: map[string]any{"id": 42, "role": "admin"},
				ResponseData:   "admin user",
			},
			{
				OperationName: "GetUser",
				ResponseData:  "any user",
			},
		},
	}

	// Request variables decoded from JSON carry float64 numbers; they
	// still match the int in the resolver config.
	exec := e.Execute(context.Background(), ep, &Request{
		Query:     `query GetUser { user }`,
		Variables: map[string]any{"id": float64(42), "role": "admin", "extra": true},
	})
	assert.Equal(t, "admin user", exec.Response.Data)

	exec = e.Execute(context.Background(), ep, &Request{
		Query:     `query GetUser { user }`,
		Variables: map[string]any{"id": float64(7), "role": "admin"},
	})
	assert.Equal(t, "any user", exec.Response.Data)

	// Missing key fails the subset check.
	exec = e.Execute(context.Background(), ep, &Request{
		Query:     `query GetUser { user }`,
		Variables: map[string]any{"id": float64(42)},
	})
	assert.Equal(t, "any user", exec.Response.Data)
}

func TestExecuteResolverErrors(t *testing.T) {
	e := NewEngine()
	ep := &endpoint.GraphQLEndpoint{
		Path: "/graphql",
		Resolvers: []endpoint.Resolver{{
			OperationName: "Broken",
			ResponseData:  map[string]any{"partial": true},
			Errors:        []endpoint.GraphQLError{{Message: "field unavailable"}},
		}},
	}

	exec := e.Execute(context.Background(), ep, &Request{Query: `query Broken { x }`})
	assert.Equal(t, map[string]any{"partial": true}, exec.Response.Data)
	require.Len(t, exec.Response.Errors, 1)
	assert.Equal(t, "field unavailable", exec.Response.Errors[0].Message)
}

func TestExecuteDefaultResponseFallback(t *testing.T) {
	e := NewEngine()
	ep := &endpoint.GraphQLEndpoint{
		Path:            "/graphql",
		DefaultResponse: &endpoint.GraphQLResponse{Data: map[string]any{"default": true}},
	}

	exec := e.Execute(context.Background(), ep, &Request{Query: `query Unknown { x }`})
	assert.Equal(t, "", exec.ResolverName)
	assert.Equal(t, map[string]any{"default": true}, exec.Response.Data)
}

func TestExecuteNoResolverFound(t *testing.T) {
	e := NewEngine()
	ep := &endpoint.GraphQLEndpoint{Path: "/graphql"}

	exec := e.Execute(context.Background(), ep, &Request{Query: `query GetUser { user }`})
	require.Len(t, exec.Response.Errors, 1)
	assert.Equal(t, "No resolver found for operation: GetUser (query)", exec.Response.Errors[0].Message)
}

func TestExecuteHonoursDelay(t *testing.T) {
	e := NewEngine()
	ep := &endpoint.GraphQLEndpoint{
		Path:      "/graphql",
		Resolvers: []endpoint.Resolver{{OperationName: "Slow", ResponseData: "done", Delay: 30}},
	}

	start := time.Now()
	exec := e.Execute(context.Background(), ep, &Request{Query: `query Slow { x }`})
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.Equal(t, "done", exec.Response.Data)
}

func TestExecuteDelayAbortsOnCancel(t *testing.T) {
	e := NewEngine()
	ep := &endpoint.GraphQLEndpoint{
		Path:      "/graphql",
		Resolvers: []endpoint.Resolver{{OperationName: "Slow", ResponseData: "done", Delay: 5000}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	exec := e.Execute(ctx, ep, &Request{Query: `query Slow { x }`})
	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, exec.Response.Errors, 1)
	assert.Equal(t, "request cancelled", exec.Response.Errors[0].Message)
}
