package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

func TestClientCreateAndGetEndpoint(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/admin/endpoints":
			var ep endpoint.Endpoint
			require.NoError(t, json.NewDecoder(r.Body).Decode(&ep))
			ep.ID = "ep-1"
			writeEnvelope(w, http.StatusCreated, ep)
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/endpoints/ep-1":
			writeEnvelope(w, http.StatusOK, endpoint.Endpoint{ID: "ep-1", Method: "GET", Path: "/users"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "s3cret")

	created, err := c.CreateEndpoint(&endpoint.Endpoint{Method: "GET", Path: "/users", StatusCode: 200})
	require.NoError(t, err)
	assert.Equal(t, "ep-1", created.ID)
	assert.Equal(t, "Bearer s3cret", gotAuth)

	got, err := c.GetEndpoint("ep-1")
	require.NoError(t, err)
	assert.Equal(t, "/users", got.Path)
}

func TestClientFailureEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "not_found",
			"message": "endpoint missing does not exist",
		})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").GetEndpoint("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestClientLogsQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		writeEnvelope(w, http.StatusOK, []any{})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Logs(LogFilter{Method: "POST", Status: 404, Limit: 5})
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "method=POST")
	assert.Contains(t, gotQuery, "status=404")
	assert.Contains(t, gotQuery, "limit=5")
}

func TestClientServerDown(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "")
	err := c.DeleteEndpoint("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is the server running")
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func TestParseBodyArg(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want any
	}{
		{"empty", "", nil},
		{"object", `{"a":1}`, map[string]any{"a": float64(1)}},
		{"array", `[1,2]`, []any{float64(1), float64(2)}},
		{"plain string", "hello there", "hello there"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseBodyArg(tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHeaderArgs(t *testing.T) {
	got, err := parseHeaderArgs([]string{"X-One: a", "X-Two:b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"X-One": "a", "X-Two": "b"}, got)

	_, err = parseHeaderArgs([]string{"no-colon"})
	assert.Error(t, err)
}

func TestResolveWSURL(t *testing.T) {
	adminURL = "http://localhost:3001"

	tests := []struct {
		in   string
		want string
	}{
		{"ws://example.com/ws/chat", "ws://example.com/ws/chat"},
		{"/chat", "ws://localhost:3001/ws/chat"},
		{"chat", "ws://localhost:3001/ws/chat"},
		{"/ws/chat", "ws://localhost:3001/ws/chat"},
	}
	for _, tt := range tests {
		got, err := resolveWSURL(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
