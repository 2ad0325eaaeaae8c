package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpoint_Clone_Independence(t *testing.T) {
	loop := false
	original := &Endpoint{
		ID:              "ep-1",
		Method:          "POST",
		Path:            "/orders",
		StatusCode:      201,
		Response:        map[string]any{"items": []any{"a", "b"}},
		ResponseHeaders: map[string]string{"X-Mock": "true"},
		Delay:           FixedDelay(50),
		ConditionalResponses: []ConditionalResponse{{
			Name:       "premium",
			Conditions: []Condition{{Source: SourceHeader, Field: "X-Tier", Operator: OpEquals, Value: "premium"}},
			Body:       map[string]any{"tier": "premium"},
		}},
		ScenarioConfig: &ScenarioConfig{
			Enabled:   true,
			Mode:      ScenarioSequential,
			Loop:      &loop,
			Responses: []ScenarioResponse{{Order: 1, Body: map[string]any{"n": 1.0}}},
		},
		ProxyConfig: &ProxyConfig{
			TargetURL:   "https://api.example.com",
			PathRewrite: PathRewrites{{Pattern: "^/orders", Replacement: "/v2/orders"}},
			Headers:     map[string]string{"X-Forwarded": "1"},
		},
		AuthConfig: &AuthConfig{
			Enabled: true,
			Method:  AuthBearer,
			Bearer:  &BearerAuthConfig{ValidTokens: []string{"secret"}},
		},
		EnvironmentOverrides: map[string]EnvironmentOverride{
			"staging": {Status: 503, Body: map[string]any{"maintenance": true}},
		},
		Tags: []string{"orders"},
	}

	clone := original.Clone()
	require.NotSame(t, original, clone)
	assert.Nil(t, Diff(original, clone))

	// Mutating the clone must not leak into the original.
	clone.Response.(map[string]any)["items"].([]any)[0] = "mutated"
	clone.ResponseHeaders["X-Mock"] = "false"
	clone.ConditionalResponses[0].Conditions[0].Value = "basic"
	clone.ScenarioConfig.Responses[0].Order = 99
	*clone.ScenarioConfig.Loop = true
	clone.ProxyConfig.Headers["X-Forwarded"] = "2"
	clone.AuthConfig.Bearer.ValidTokens[0] = "leaked"
	clone.Tags[0] = "changed"

	assert.Equal(t, "a", original.Response.(map[string]any)["items"].([]any)[0])
	assert.Equal(t, "true", original.ResponseHeaders["X-Mock"])
	assert.Equal(t, "premium", original.ConditionalResponses[0].Conditions[0].Value)
	assert.Equal(t, 1, original.ScenarioConfig.Responses[0].Order)
	assert.False(t, *original.ScenarioConfig.Loop)
	assert.Equal(t, "1", original.ProxyConfig.Headers["X-Forwarded"])
	assert.Equal(t, "secret", original.AuthConfig.Bearer.ValidTokens[0])
	assert.Equal(t, "orders", original.Tags[0])
}

func TestEndpoint_Clone_Nil(t *testing.T) {
	var ep *Endpoint
	assert.Nil(t, ep.Clone())
}

func TestWebSocketEndpoint_Clone_Independence(t *testing.T) {
	active := true
	original := &WebSocketEndpoint{
		ID:     "ws-1",
		Path:   "/chat",
		Active: &active,
		MessagePatterns: []MessagePattern{{
			MatchType: WSMatchJSONPath,
			Pattern:   "type=ping",
			Response:  &WSResponse{Data: map[string]any{"type": "pong"}},
		}},
		OnConnectMessage:  &WSResponse{Data: "welcome"},
		ScheduledMessages: []ScheduledMessage{{Interval: 1000, Response: &WSResponse{Data: "tick"}}},
	}

	clone := original.Clone()
	clone.MessagePatterns[0].Response.Data.(map[string]any)["type"] = "mutated"
	*clone.Active = false
	clone.ScheduledMessages[0].Interval = 5

	assert.Equal(t, "pong", original.MessagePatterns[0].Response.Data.(map[string]any)["type"])
	assert.True(t, *original.Active)
	assert.Equal(t, 1000, original.ScheduledMessages[0].Interval)
}

func TestGraphQLEndpoint_Clone_Independence(t *testing.T) {
	original := &GraphQLEndpoint{
		ID:   "gql-1",
		Path: "/graphql",
		Resolvers: []Resolver{{
			OperationName:  "GetUser",
			OperationType:  OperationQuery,
			VariablesMatch: map[string]any{"id": "42"},
			ResponseData:   map[string]any{"user": map[string]any{"id": "42"}},
		}},
		DefaultResponse: &GraphQLResponse{Data: map[string]any{"ok": true}},
	}

	clone := original.Clone()
	clone.Resolvers[0].VariablesMatch["id"] = "43"
	clone.Resolvers[0].ResponseData.(map[string]any)["user"].(map[string]any)["id"] = "43"
	clone.DefaultResponse.Data.(map[string]any)["ok"] = false

	assert.Equal(t, "42", original.Resolvers[0].VariablesMatch["id"])
	assert.Equal(t, "42", original.Resolvers[0].ResponseData.(map[string]any)["user"].(map[string]any)["id"])
	assert.Equal(t, true, original.DefaultResponse.Data.(map[string]any)["ok"])
}

func TestCloneValue(t *testing.T) {
	src := map[string]any{
		"nested": map[string]any{"list": []any{1.0, "two", true}},
		"scalar": "value",
	}
	dst := CloneValue(src).(map[string]any)
	dst["nested"].(map[string]any)["list"].([]any)[1] = "mutated"

	assert.Equal(t, "two", src["nested"].(map[string]any)["list"].([]any)[1])
	assert.Nil(t, CloneValue(nil))
}
