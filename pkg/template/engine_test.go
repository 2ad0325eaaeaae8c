package template

import (
	"encoding/json"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uuidV4Regex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func testContext(t *testing.T) *Context {
	t.Helper()
	r := httptest.NewRequest("POST", "/api/users/42?search=widgets&search=gadgets&empty=", nil)
	r.Header.Set("X-Request-Id", "abc-123")
	r.Header.Set("Authorization", "Bearer tok")

	var body any
	require.NoError(t, json.Unmarshal([]byte(`{
		"user": {"name": "Ada", "age": 36, "roles": ["admin", "ops"]},
		"active": true
	}`), &body))

	return NewContext(r, map[string]string{"id": "42"}, body)
}

func TestEngine_Process_Generators(t *testing.T) {
	e := New()

	t.Run("uuid", func(t *testing.T) {
		got := e.Process("{{$uuid}}", nil)
		assert.Regexp(t, uuidV4Regex, got)
	})

	t.Run("timestamp is epoch milliseconds", func(t *testing.T) {
		got := e.Process("{{$timestamp}}", nil)
		ms, err := strconv.ParseInt(got, 10, 64)
		require.NoError(t, err)
		assert.InDelta(t, time.Now().UnixMilli(), ms, 10_000)
	})

	t.Run("isoDate", func(t *testing.T) {
		got := e.Process("{{$isoDate}}", nil)
		parsed, err := time.Parse(isoMillis, got)
		require.NoError(t, err, "isoDate should produce %s, got %s", isoMillis, got)
		assert.True(t, strings.HasSuffix(got, "Z"), "isoDate should be UTC")
		assert.InDelta(t, time.Now().Unix(), parsed.Unix(), 10)
	})

	t.Run("randomBoolean", func(t *testing.T) {
		got := e.Process("{{$randomBoolean}}", nil)
		assert.Contains(t, []string{"true", "false"}, got)
	})

	t.Run("randomName draws from the fixed lists", func(t *testing.T) {
		got := e.Process("{{$randomName}}", nil)
		parts := strings.SplitN(got, " ", 2)
		require.Len(t, parts, 2)
		assert.Contains(t, firstNames, parts[0])
		assert.Contains(t, lastNames, parts[1])
	})

	t.Run("randomEmail", func(t *testing.T) {
		got := e.Process("{{$randomEmail}}", nil)
		local, domain, found := strings.Cut(got, "@")
		require.True(t, found)
		assert.Regexp(t, `^[a-z0-9]{8}$`, local)
		assert.Contains(t, emailDomains, domain)
	})
}

func TestEngine_Process_RandomInt(t *testing.T) {
	e := New()

	assert.Equal(t, "7", e.Process("{{$randomInt 7 7}}", nil))

	for i := 0; i < 50; i++ {
		got := e.Process("{{$randomInt 10 20}}", nil)
		n, err := strconv.Atoi(got)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 10)
		assert.LessOrEqual(t, n, 20)
	}

	// Default range is [0, 1000].
	for i := 0; i < 50; i++ {
		n, err := strconv.Atoi(e.Process("{{$randomInt}}", nil))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 0)
		assert.LessOrEqual(t, n, 1000)
	}

	assert.Equal(t, "{{$randomInt abc}}", e.Process("{{$randomInt abc}}", nil), "bad argument stays verbatim")
	assert.Equal(t, "{{$randomInt 9 3}}", e.Process("{{$randomInt 9 3}}", nil), "inverted range stays verbatim")
}

func TestEngine_Process_RandomFloat(t *testing.T) {
	e := New()

	assert.Equal(t, "1.00", e.Process("{{$randomFloat 1 1}}", nil))
	assert.Equal(t, "0.0000", e.Process("{{$randomFloat 0 0 4}}", nil))

	for i := 0; i < 50; i++ {
		got := e.Process("{{$randomFloat}}", nil)
		f, err := strconv.ParseFloat(got, 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, f, 0.0)
		assert.LessOrEqual(t, f, 1.0)
		_, frac, found := strings.Cut(got, ".")
		require.True(t, found, "default precision is 2, got %s", got)
		assert.Len(t, frac, 2)
	}

	assert.Equal(t, "{{$randomFloat x y}}", e.Process("{{$randomFloat x y}}", nil))
	assert.Equal(t, "{{$randomFloat 0 1 -2}}", e.Process("{{$randomFloat 0 1 -2}}", nil))
}

func TestEngine_Process_RandomString(t *testing.T) {
	e := New()

	got := e.Process("{{$randomString 16}}", nil)
	assert.Regexp(t, `^[a-zA-Z0-9]{16}$`, got)

	got = e.Process("{{$randomString}}", nil)
	assert.Regexp(t, `^[a-zA-Z0-9]{10}$`, got)

	assert.Equal(t, "{{$randomString ten}}", e.Process("{{$randomString ten}}", nil))
}

func TestEngine_Process_RequestAccessors(t *testing.T) {
	e := New()
	ctx := testContext(t)

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "query space form takes first value",
			template: "{{$request.query search}}",
			want:     "widgets",
		},
		{
			name:     "query dotted form",
			template: "{{$request.query.search}}",
			want:     "widgets",
		},
		{
			name:     "missing query key is empty",
			template: "{{$request.query nope}}",
			want:     "",
		},
		{
			name:     "header is case-insensitive",
			template: "{{$request.header x-request-id}}",
			want:     "abc-123",
		},
		{
			name:     "header dotted form",
			template: "{{$request.header.Authorization}}",
			want:     "Bearer tok",
		},
		{
			name:     "body dotted path",
			template: "{{$request.body.user.name}}",
			want:     "Ada",
		},
		{
			name:     "body space form with dot path argument",
			template: "{{$request.body user.age}}",
			want:     "36",
		},
		{
			name:     "body non-scalar is JSON encoded",
			template: "{{$request.body.user.roles}}",
			want:     `["admin","ops"]`,
		},
		{
			name:     "missing body path is empty",
			template: "{{$request.body.user.missing}}",
			want:     "",
		},
		{
			name:     "path parameter dotted form",
			template: "{{$request.path.id}}",
			want:     "42",
		},
		{
			name:     "path parameter space form",
			template: "{{$request.path id}}",
			want:     "42",
		},
		{
			name:     "embedded in surrounding text",
			template: "user {{$request.path.id}} searched {{$request.query.search}}",
			want:     "user 42 searched widgets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Process(tt.template, ctx))
		})
	}
}

func TestEngine_Process_UnknownStaysVerbatim(t *testing.T) {
	e := New()
	ctx := testContext(t)

	tests := []struct {
		name     string
		template string
	}{
		{"plain string", "hello world"},
		{"braces without dollar", "{{uuid}}"},
		{"unknown generator", "{{$nope}}"},
		{"unknown request accessor", "{{$request.cookie session}}"},
		{"empty expression", "{{$}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.template, e.Process(tt.template, ctx))
		})
	}
}

func TestEngine_ProcessValue_Recursion(t *testing.T) {
	e := New()
	ctx := testContext(t)

	input := map[string]any{
		"id":     "{{$request.path.id}}",
		"count":  float64(3),
		"active": true,
		"nested": map[string]any{
			"search": "{{$request.query.search}}",
		},
		"list": []any{"{{$request.path.id}}", float64(1), nil},
	}

	got, ok := e.ProcessValue(input, ctx).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "42", got["id"])
	assert.Equal(t, float64(3), got["count"], "non-strings pass through")
	assert.Equal(t, true, got["active"])
	assert.Equal(t, "widgets", got["nested"].(map[string]any)["search"])
	assert.Equal(t, []any{"42", float64(1), nil}, got["list"])

	// The input itself is not mutated.
	assert.Equal(t, "{{$request.path.id}}", input["id"])

	assert.Nil(t, e.ProcessValue(nil, ctx))
	assert.Equal(t, float64(7), e.ProcessValue(float64(7), ctx))
}
