package endpoint

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation failure with context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// validMethods are the allowed HTTP methods.
var validMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
}

var validSources = map[ConditionSource]bool{
	SourceQuery:  true,
	SourceHeader: true,
	SourceBody:   true,
}

var validOperators = map[ConditionOperator]bool{
	OpEquals:     true,
	OpNotEquals:  true,
	OpContains:   true,
	OpStartsWith: true,
	OpEndsWith:   true,
	OpRegex:      true,
	OpExists:     true,
}

var validScenarioModes = map[ScenarioMode]bool{
	ScenarioSequential: true,
	ScenarioRandom:     true,
	ScenarioWeighted:   true,
}

var validAuthMethods = map[AuthMethod]bool{
	AuthBearer: true,
	AuthJWT:    true,
	AuthAPIKey: true,
	AuthBasic:  true,
	AuthNone:   true,
}

var validWSMatchTypes = map[WSMatchType]bool{
	WSMatchExact:    true,
	WSMatchContains: true,
	WSMatchRegex:    true,
	WSMatchJSONPath: true,
}

// Validate checks the endpoint definition. Runtime concerns like regex
// compilation are deliberately not checked here; a pattern that fails to
// compile simply never matches.
func (e *Endpoint) Validate() error {
	if e.Method == "" {
		return &ValidationError{Field: "method", Message: "method is required"}
	}
	if !validMethods[strings.ToUpper(e.Method)] {
		return &ValidationError{Field: "method", Message: fmt.Sprintf("invalid HTTP method: %s", e.Method)}
	}

	if e.Path == "" {
		return &ValidationError{Field: "path", Message: "path is required"}
	}
	if !strings.HasPrefix(e.Path, "/") {
		return &ValidationError{Field: "path", Message: "path must start with /"}
	}

	if e.StatusCode != 0 && (e.StatusCode < 100 || e.StatusCode > 599) {
		return &ValidationError{Field: "statusCode", Message: fmt.Sprintf("statusCode must be between 100-599, got %d", e.StatusCode)}
	}

	if e.Status != "" && e.Status != StatusActive && e.Status != StatusInactive {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("status must be active or inactive, got %s", e.Status)}
	}

	for i, cr := range e.ConditionalResponses {
		if err := cr.validate(fmt.Sprintf("conditionalResponses[%d]", i)); err != nil {
			return err
		}
	}

	if e.ScenarioConfig != nil {
		if err := e.ScenarioConfig.validate(); err != nil {
			return err
		}
	}

	if e.ProxyConfig != nil {
		if err := e.ProxyConfig.validate(); err != nil {
			return err
		}
	}

	if e.AuthConfig != nil {
		if err := e.AuthConfig.Validate(); err != nil {
			return err
		}
	}

	if e.RateLimitConfig != nil {
		if err := e.RateLimitConfig.validate(); err != nil {
			return err
		}
	}

	if e.Validation != nil {
		if err := e.Validation.validate(); err != nil {
			return err
		}
	}

	return nil
}

func (c *ConditionalResponse) validate(field string) error {
	if len(c.Conditions) == 0 {
		return &ValidationError{Field: field + ".conditions", Message: "at least one condition is required"}
	}
	for i, cond := range c.Conditions {
		prefix := fmt.Sprintf("%s.conditions[%d]", field, i)
		if !validSources[cond.Source] {
			return &ValidationError{Field: prefix + ".source", Message: fmt.Sprintf("source must be query, header, or body, got %s", cond.Source)}
		}
		if cond.Field == "" {
			return &ValidationError{Field: prefix + ".field", Message: "field is required"}
		}
		if !validOperators[cond.Operator] {
			return &ValidationError{Field: prefix + ".operator", Message: fmt.Sprintf("unknown operator: %s", cond.Operator)}
		}
		if cond.Operator != OpExists && cond.Value == "" {
			return &ValidationError{Field: prefix + ".value", Message: fmt.Sprintf("value is required for operator %s", cond.Operator)}
		}
	}
	if c.Status != 0 && (c.Status < 100 || c.Status > 599) {
		return &ValidationError{Field: field + ".status", Message: fmt.Sprintf("status must be between 100-599, got %d", c.Status)}
	}
	return nil
}

func (s *ScenarioConfig) validate() error {
	if !validScenarioModes[s.Mode] {
		return &ValidationError{Field: "scenarioConfig.mode", Message: fmt.Sprintf("mode must be sequential, random, or weighted, got %s", s.Mode)}
	}
	if s.Enabled && len(s.Responses) == 0 {
		return &ValidationError{Field: "scenarioConfig.responses", Message: "at least one response is required when the scenario is enabled"}
	}
	if s.ResetAfter < 0 {
		return &ValidationError{Field: "scenarioConfig.resetAfter", Message: "resetAfter must be >= 0"}
	}
	for i, r := range s.Responses {
		if r.Status != 0 && (r.Status < 100 || r.Status > 599) {
			return &ValidationError{Field: fmt.Sprintf("scenarioConfig.responses[%d].status", i), Message: fmt.Sprintf("status must be between 100-599, got %d", r.Status)}
		}
		if r.Weight < 0 {
			return &ValidationError{Field: fmt.Sprintf("scenarioConfig.responses[%d].weight", i), Message: "weight must be >= 0"}
		}
	}
	return nil
}

func (p *ProxyConfig) validate() error {
	if p.Enabled && p.TargetURL == "" {
		return &ValidationError{Field: "proxyConfig.targetUrl", Message: "targetUrl is required when the proxy is enabled"}
	}
	if p.Timeout < 0 {
		return &ValidationError{Field: "proxyConfig.timeout", Message: "timeout must be >= 0"}
	}
	if p.CacheTTL < 0 {
		return &ValidationError{Field: "proxyConfig.cacheTtl", Message: "cacheTtl must be >= 0"}
	}
	return nil
}

// Validate checks an auth config, per-endpoint or global.
func (a *AuthConfig) Validate() error {
	if a.Method == "" {
		if a.Enabled {
			return &ValidationError{Field: "authConfig.method", Message: "method is required when auth is enabled"}
		}
		return nil
	}
	if !validAuthMethods[a.Method] {
		return &ValidationError{Field: "authConfig.method", Message: fmt.Sprintf("method must be bearer, jwt, apiKey, basic, or none, got %s", a.Method)}
	}
	if a.ErrorStatusCode != 0 && (a.ErrorStatusCode < 100 || a.ErrorStatusCode > 599) {
		return &ValidationError{Field: "authConfig.errorStatusCode", Message: fmt.Sprintf("errorStatusCode must be between 100-599, got %d", a.ErrorStatusCode)}
	}
	return nil
}

func (r *RateLimitConfig) validate() error {
	if r.RequestsPerWindow <= 0 {
		return &ValidationError{Field: "rateLimitConfig.requestsPerWindow", Message: "requestsPerWindow must be > 0"}
	}
	if r.WindowSeconds <= 0 {
		return &ValidationError{Field: "rateLimitConfig.windowSeconds", Message: "windowSeconds must be > 0"}
	}
	if r.BurstLimit < 0 {
		return &ValidationError{Field: "rateLimitConfig.burstLimit", Message: "burstLimit must be >= 0"}
	}
	switch r.KeyBy {
	case "", KeyByIP:
	case KeyByHeader, KeyByQuery:
		if r.KeyName == "" {
			return &ValidationError{Field: "rateLimitConfig.keyName", Message: fmt.Sprintf("keyName is required when keyBy is %s", r.KeyBy)}
		}
	default:
		return &ValidationError{Field: "rateLimitConfig.keyBy", Message: fmt.Sprintf("keyBy must be ip, header, or query, got %s", r.KeyBy)}
	}
	if r.ErrorStatusCode != 0 && (r.ErrorStatusCode < 100 || r.ErrorStatusCode > 599) {
		return &ValidationError{Field: "rateLimitConfig.errorStatusCode", Message: fmt.Sprintf("errorStatusCode must be between 100-599, got %d", r.ErrorStatusCode)}
	}
	return nil
}

func (v *ValidationRules) validate() error {
	if v.FailStatus != 0 && (v.FailStatus < 100 || v.FailStatus > 599) {
		return &ValidationError{Field: "validation.failStatus", Message: fmt.Sprintf("failStatus must be between 100-599, got %d", v.FailStatus)}
	}
	return nil
}

// Validate checks the WebSocket endpoint definition.
func (w *WebSocketEndpoint) Validate() error {
	if w.Path == "" {
		return &ValidationError{Field: "path", Message: "path is required"}
	}
	for i, mp := range w.MessagePatterns {
		prefix := fmt.Sprintf("messagePatterns[%d]", i)
		if !validWSMatchTypes[mp.MatchType] {
			return &ValidationError{Field: prefix + ".matchType", Message: fmt.Sprintf("matchType must be exact, contains, regex, or json-path, got %s", mp.MatchType)}
		}
		if mp.Pattern == "" {
			return &ValidationError{Field: prefix + ".pattern", Message: "pattern is required"}
		}
		if mp.MatchType == WSMatchJSONPath && !strings.Contains(mp.Pattern, "=") {
			return &ValidationError{Field: prefix + ".pattern", Message: "json-path pattern must have the form path=expected"}
		}
	}
	for i, sm := range w.ScheduledMessages {
		prefix := fmt.Sprintf("scheduledMessages[%d]", i)
		if sm.Interval <= 0 {
			return &ValidationError{Field: prefix + ".interval", Message: "interval must be > 0"}
		}
		if sm.Response == nil {
			return &ValidationError{Field: prefix + ".response", Message: "response is required"}
		}
	}
	return nil
}

// Validate checks the GraphQL endpoint definition.
func (g *GraphQLEndpoint) Validate() error {
	if g.Path == "" {
		return &ValidationError{Field: "path", Message: "path is required"}
	}
	for i, r := range g.Resolvers {
		if err := r.Validate(); err != nil {
			if ve, ok := err.(*ValidationError); ok {
				ve.Field = fmt.Sprintf("resolvers[%d].%s", i, ve.Field)
			}
			return err
		}
	}
	return nil
}

// Validate checks a single resolver definition.
func (r *Resolver) Validate() error {
	if r.OperationName == "" {
		return &ValidationError{Field: "operationName", Message: "operationName is required"}
	}
	switch r.OperationType {
	case "", OperationQuery, OperationMutation, OperationSubscription:
	default:
		return &ValidationError{Field: "operationType", Message: fmt.Sprintf("operationType must be query, mutation, or subscription, got %s", r.OperationType)}
	}
	if r.Delay < 0 {
		return &ValidationError{Field: "delay", Message: "delay must be >= 0"}
	}
	return nil
}
