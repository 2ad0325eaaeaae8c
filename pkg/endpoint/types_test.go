package endpoint

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEndpoint_UnmarshalJSON(t *testing.T) {
	raw := `{
		"id": "ep-1",
		"method": "GET",
		"path": "/users/:id",
		"statusCode": 200,
		"response": {"id": "{{$request.path id}}", "name": "Ada"},
		"responseHeaders": {"X-Mock": "true"},
		"delay": 150,
		"status": "active",
		"tags": ["users", "demo"]
	}`

	var ep Endpoint
	require.NoError(t, json.Unmarshal([]byte(raw), &ep))

	assert.Equal(t, "ep-1", ep.ID)
	assert.Equal(t, "GET", ep.Method)
	assert.Equal(t, "/users/:id", ep.Path)
	assert.Equal(t, 200, ep.StatusCode)
	assert.Equal(t, "true", ep.ResponseHeaders["X-Mock"])
	require.NotNil(t, ep.Delay)
	assert.Equal(t, 150, ep.Delay.Fixed)
	assert.False(t, ep.Delay.Range)
	assert.True(t, ep.IsActive())

	body, ok := ep.Response.(map[string]any)
	require.True(t, ok, "response should decode as a JSON object")
	assert.Equal(t, "Ada", body["name"])
}

func TestEndpoint_IsActive(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"empty status counts as active", "", true},
		{"explicit active", StatusActive, true},
		{"inactive", StatusInactive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := Endpoint{Status: tt.status}
			assert.Equal(t, tt.want, ep.IsActive())
		})
	}
}

func TestEndpoint_Normalize(t *testing.T) {
	ep := Endpoint{Method: "GET", Path: "/x"}
	ep.Normalize()
	assert.Equal(t, 200, ep.StatusCode)
	assert.Equal(t, StatusActive, ep.Status)

	ep2 := Endpoint{Method: "POST", Path: "/y", StatusCode: 201, Status: StatusInactive}
	ep2.Normalize()
	assert.Equal(t, 201, ep2.StatusCode)
	assert.Equal(t, StatusInactive, ep2.Status)
}

func TestDelay_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantFixed int
		wantMin   int
		wantMax   int
		wantRange bool
		wantErr   bool
	}{
		{name: "number", json: `250`, wantFixed: 250},
		{name: "zero", json: `0`, wantFixed: 0},
		{name: "range object", json: `{"min": 100, "max": 300}`, wantMin: 100, wantMax: 300, wantRange: true},
		{name: "string rejected", json: `"fast"`, wantErr: true},
		{name: "array rejected", json: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Delay
			err := json.Unmarshal([]byte(tt.json), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFixed, d.Fixed)
			assert.Equal(t, tt.wantMin, d.Min)
			assert.Equal(t, tt.wantMax, d.Max)
			assert.Equal(t, tt.wantRange, d.Range)
		})
	}
}

func TestDelay_MarshalJSON(t *testing.T) {
	fixed, err := json.Marshal(FixedDelay(100))
	require.NoError(t, err)
	assert.JSONEq(t, `100`, string(fixed))

	ranged, err := json.Marshal(RangeDelay(50, 150))
	require.NoError(t, err)
	assert.JSONEq(t, `{"min":50,"max":150}`, string(ranged))
}

func TestDelay_Duration(t *testing.T) {
	d := FixedDelay(200)
	assert.Equal(t, int64(200), d.Duration().Milliseconds())

	r := RangeDelay(100, 300)
	for i := 0; i < 50; i++ {
		ms := r.Duration().Milliseconds()
		assert.GreaterOrEqual(t, ms, int64(100))
		assert.LessOrEqual(t, ms, int64(300))
	}

	neg := FixedDelay(-5)
	assert.Equal(t, int64(0), neg.Duration().Milliseconds())
}

func TestDelay_UnmarshalYAML(t *testing.T) {
	var scalar struct {
		Delay *Delay `yaml:"delay"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("delay: 75"), &scalar))
	require.NotNil(t, scalar.Delay)
	assert.Equal(t, 75, scalar.Delay.Fixed)

	var ranged struct {
		Delay *Delay `yaml:"delay"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("delay:\n  min: 10\n  max: 20"), &ranged))
	require.NotNil(t, ranged.Delay)
	assert.True(t, ranged.Delay.Range)
	assert.Equal(t, 10, ranged.Delay.Min)
	assert.Equal(t, 20, ranged.Delay.Max)
}

func TestPathRewrites_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    PathRewrites
		wantErr bool
	}{
		{
			name: "array form",
			json: `[{"pattern": "^/v1", "replacement": "/api/v1"}, {"pattern": "^/old", "replacement": "/new"}]`,
			want: PathRewrites{
				{Pattern: "^/v1", Replacement: "/api/v1"},
				{Pattern: "^/old", Replacement: "/new"},
			},
		},
		{
			name: "object form preserves key order",
			json: `{"^/v1": "/api/v1", "^/old": "/new", "^/legacy": "/modern"}`,
			want: PathRewrites{
				{Pattern: "^/v1", Replacement: "/api/v1"},
				{Pattern: "^/old", Replacement: "/new"},
				{Pattern: "^/legacy", Replacement: "/modern"},
			},
		},
		{name: "null", json: `null`, want: nil},
		{name: "non-string replacement rejected", json: `{"^/v1": 42}`, wantErr: true},
		{name: "scalar rejected", json: `"nope"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PathRewrites
			err := json.Unmarshal([]byte(tt.json), &p)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestPathRewrites_UnmarshalYAML(t *testing.T) {
	raw := "pathRewrite:\n  \"^/v1\": /api/v1\n  \"^/old\": /new\n"
	var cfg struct {
		PathRewrite PathRewrites `yaml:"pathRewrite"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(raw), &cfg))
	require.Len(t, cfg.PathRewrite, 2)
	assert.Equal(t, "^/v1", cfg.PathRewrite[0].Pattern)
	assert.Equal(t, "/api/v1", cfg.PathRewrite[0].Replacement)
	assert.Equal(t, "^/old", cfg.PathRewrite[1].Pattern)
}

func TestScenarioConfig_LoopEnabled(t *testing.T) {
	sc := ScenarioConfig{}
	assert.True(t, sc.LoopEnabled(), "loop defaults to true")

	f := false
	sc.Loop = &f
	assert.False(t, sc.LoopEnabled())
}

func TestProxyConfig_Defaults(t *testing.T) {
	p := ProxyConfig{}
	assert.Equal(t, int64(30000), p.TimeoutDuration().Milliseconds())
	assert.Equal(t, int64(300), int64(p.CacheTTLDuration().Seconds()))

	p = ProxyConfig{Timeout: 5000, CacheTTL: 60}
	assert.Equal(t, int64(5000), p.TimeoutDuration().Milliseconds())
	assert.Equal(t, int64(60), int64(p.CacheTTLDuration().Seconds()))
}

func TestWebSocketEndpoint_Normalize(t *testing.T) {
	ws := WebSocketEndpoint{Path: "chat"}
	ws.Normalize()
	assert.Equal(t, "/chat", ws.Path)

	ws2 := WebSocketEndpoint{Path: "/already"}
	ws2.Normalize()
	assert.Equal(t, "/already", ws2.Path)
}

func TestWebSocketEndpoint_IsActive(t *testing.T) {
	ws := WebSocketEndpoint{}
	assert.True(t, ws.IsActive(), "unset active flag counts as active")

	f := false
	ws.Active = &f
	assert.False(t, ws.IsActive())
}

func TestGraphQLEndpoint_FindResolver(t *testing.T) {
	g := GraphQLEndpoint{
		Resolvers: []Resolver{
			{OperationName: "GetUser"},
			{OperationName: "ListUsers"},
		},
	}

	r := g.FindResolver("ListUsers")
	require.NotNil(t, r)
	assert.Equal(t, "ListUsers", r.OperationName)

	assert.Nil(t, g.FindResolver("Missing"))
}
