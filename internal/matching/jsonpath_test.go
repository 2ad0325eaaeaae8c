package matching

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestLookupPath(t *testing.T) {
	body := decodeJSON(t, `{
		"user": {
			"name": "Ada",
			"address": {"city": "London"},
			"roles": ["admin", "editor"],
			"deleted": null
		},
		"items": [{"name": "first"}, {"name": "second"}],
		"count": 42,
		"active": true
	}`)

	tests := []struct {
		name      string
		path      string
		want      any
		wantFound bool
	}{
		{name: "top-level key", path: "count", want: float64(42), wantFound: true},
		{name: "nested key", path: "user.name", want: "Ada", wantFound: true},
		{name: "deeply nested", path: "user.address.city", want: "London", wantFound: true},
		{name: "array index", path: "items.0.name", want: "first", wantFound: true},
		{name: "second array index", path: "items.1.name", want: "second", wantFound: true},
		{name: "array in object", path: "user.roles.1", want: "editor", wantFound: true},
		{name: "boolean value", path: "active", want: true, wantFound: true},
		{name: "explicit null resolves", path: "user.deleted", want: nil, wantFound: true},
		{name: "missing key", path: "user.missing", wantFound: false},
		{name: "index out of range", path: "items.5.name", wantFound: false},
		{name: "index into object", path: "user.0", wantFound: false},
		{name: "key into array", path: "items.name", wantFound: false},
		{name: "empty path", path: "", wantFound: false},
		{name: "empty segment", path: "user..name", wantFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := LookupPath(body, tt.path)
			require.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLookupPath_NilData(t *testing.T) {
	_, found := LookupPath(nil, "a.b")
	assert.False(t, found)
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string verbatim", "hello", "hello"},
		{"integer-valued float", float64(42), "42"},
		{"fractional float", 3.5, "3.5"},
		{"bool", true, "true"},
		{"null is empty", nil, ""},
		{"object json-encoded", map[string]any{"a": float64(1)}, `{"a":1}`},
		{"array json-encoded", []any{"x", float64(2)}, `["x",2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stringify(tt.in))
		})
	}
}

func TestCompilePathCacheBounded(t *testing.T) {
	data := decodeJSON(t, `{"k": 1}`)

	for i := 0; i < maxExprCache*2; i++ {
		_, found := LookupPath(data, fmt.Sprintf("churn%d.k", i))
		assert.False(t, found)
	}

	exprMu.RLock()
	size := len(exprCache)
	exprMu.RUnlock()
	assert.LessOrEqual(t, size, maxExprCache)

	// Lookups keep working after the cache recycles.
	v, found := LookupPath(data, "k")
	require.True(t, found)
	assert.Equal(t, float64(1), v)
}
