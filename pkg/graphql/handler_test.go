package graphql

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockbird/mockbird/pkg/endpoint"
	"github.com/mockbird/mockbird/pkg/requestlog"
)

func newTestHandler(t *testing.T) (*Handler, *Engine, *endpoint.GraphQLEndpoint) {
	t.Helper()
	e := NewEngine()
	created, err := e.CreateEndpoint(&endpoint.GraphQLEndpoint{
		Path:      "/graphql",
		Resolvers: []endpoint.Resolver{userResolver()},
	})
	require.NoError(t, err)
	return NewHandler(e), e, created
}

func postJSON(t *testing.T, h *Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) *endpoint.GraphQLResponse {
	t.Helper()
	var resp endpoint.GraphQLResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return &resp
}

func TestHandlerServesPost(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := postJSON(t, h, "/graphql", `{"query": "query GetUser { user { id name } }"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Data)
	data := resp.Data.(map[string]any)
	user := data["user"].(map[string]any)
	assert.Equal(t, "Ada", user["name"])
	assert.Empty(t, resp.Errors)
}

func TestHandlerServesGraphQLContentType(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`query GetUser { user { id } }`))
	req.Header.Set("Content-Type", "application/graphql")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.NotNil(t, resp.Data)
}

func TestHandlerServesGet(t *testing.T) {
	h, e, created := newTestHandler(t)

	r := endpoint.Resolver{
		OperationName:  "GetUser",
		VariablesMatch: map[string]any{"id": float64(7)},
		ResponseData:   "by id",
	}
	_, err := e.UpdateEndpoint(created.ID, &endpoint.GraphQLEndpoint{
		Path:      "/graphql",
		Resolvers: []endpoint.Resolver{r},
	})
	require.NoError(t, err)

	params := url.Values{}
	params.Set("query", "query GetUser { user }")
	params.Set("variables", `{"id": 7}`)
	req := httptest.NewRequest(http.MethodGet, "/graphql?"+params.Encode(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "by id", resp.Data)
}

func TestHandlerGetRejectsBadVariables(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/graphql?query=query+GetUser+%7B+user+%7D&variables=%7Bnope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "invalid variables JSON", resp.Errors[0].Message)
}

func TestHandlerMissingQuery(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := postJSON(t, h, "/graphql", `{"operationName": "GetUser"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "query is required", resp.Errors[0].Message)
}

func TestHandlerInvalidJSONBody(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := postJSON(t, h, "/graphql", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h, "/graphql", ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "empty request body", resp.Errors[0].Message)
}

func TestHandlerUnknownPath(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := postJSON(t, h, "/nope", `{"query": "{ x }"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerInactiveEndpoint(t *testing.T) {
	h, e, created := newTestHandler(t)

	_, err := e.UpdateEndpoint(created.ID, &endpoint.GraphQLEndpoint{
		Path:   "/graphql",
		Active: boolPtr(false),
	})
	require.NoError(t, err)

	rec := postJSON(t, h, "/graphql", `{"query": "{ x }"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPut, "/graphql", strings.NewReader(`{"query": "{ x }"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerUnmatchedOperationStillOK(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := postJSON(t, h, "/graphql", `{"query": "mutation Nope { nope }"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "No resolver found for operation: Nope (mutation)", resp.Errors[0].Message)
}

func TestHandlerLogsOperations(t *testing.T) {
	h, e, created := newTestHandler(t)

	postJSON(t, h, "/graphql", `{"query": "query GetUser { user { id } }", "variables": {"id": 1}}`)
	postJSON(t, h, "/graphql", `{"query": "mutation Nope { nope }"}`)

	entries := e.Log().List(nil)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "Nope", entries[0].OperationName)
	assert.Equal(t, "mutation", entries[0].OperationType)
	assert.True(t, entries[0].HadErrors)
	assert.Empty(t, entries[0].ResolverName)

	assert.Equal(t, "GetUser", entries[1].OperationName)
	assert.Equal(t, "GetUser", entries[1].ResolverName)
	assert.Equal(t, created.ID, entries[1].EndpointID)
	assert.False(t, entries[1].HadErrors)
	assert.Equal(t, map[string]any{"id": float64(1)}, entries[1].Variables)

	filtered := e.Log().List(&requestlog.OperationFilter{OperationType: "mutation"})
	require.Len(t, filtered, 1)
	assert.Equal(t, "Nope", filtered[0].OperationName)
}
