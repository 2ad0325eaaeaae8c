// Package endpoint defines the mock endpoint entities (HTTP, WebSocket,
// GraphQL) shared by the store, the request pipeline, and the admin API.
package endpoint

import (
	"net/http"
	"time"
)

// Status marks an endpoint as active or inactive. Inactive endpoints are
// never matched by the request pipeline but remain visible to the admin API.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Endpoint is the primary HTTP mock entity. The matcher returns the first
// active endpoint whose method and path pattern match the request, in
// insertion order; (method, path) pairs are not required to be unique.
type Endpoint struct {
	// ID is a unique identifier assigned by the store
	ID string `json:"id" yaml:"id"`

	// Method is the HTTP method this endpoint responds to
	Method string `json:"method" yaml:"method"`

	// Path is the pattern to match, with :name segments binding parameters
	// (e.g. /users/:id)
	Path string `json:"path" yaml:"path"`

	// StatusCode is the default response status (200 when unset)
	StatusCode int `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`

	// Response is the default response body, an arbitrary JSON value.
	// String values anywhere inside it may contain {{$...}} template
	// expressions.
	Response any `json:"response,omitempty" yaml:"response,omitempty"`

	// ResponseHeaders are extra headers applied to every response
	ResponseHeaders map[string]string `json:"responseHeaders,omitempty" yaml:"responseHeaders,omitempty"`

	// Delay postpones the response, either a fixed number of milliseconds
	// or a {min,max} range sampled uniformly
	Delay *Delay `json:"delay,omitempty" yaml:"delay,omitempty"`

	// ConditionalResponses are evaluated in order; the first whose
	// conditions all match replaces the default response
	ConditionalResponses []ConditionalResponse `json:"conditionalResponses,omitempty" yaml:"conditionalResponses,omitempty"`

	// ScenarioConfig rotates responses across successive requests
	ScenarioConfig *ScenarioConfig `json:"scenarioConfig,omitempty" yaml:"scenarioConfig,omitempty"`

	// ProxyConfig forwards matched requests to a real upstream instead of
	// serving the mock response
	ProxyConfig *ProxyConfig `json:"proxyConfig,omitempty" yaml:"proxyConfig,omitempty"`

	// AuthConfig simulates authentication for this endpoint, overriding
	// the global settings when enabled
	AuthConfig *AuthConfig `json:"authConfig,omitempty" yaml:"authConfig,omitempty"`

	// RateLimitConfig throttles requests per client key
	RateLimitConfig *RateLimitConfig `json:"rateLimitConfig,omitempty" yaml:"rateLimitConfig,omitempty"`

	// EnvironmentOverrides substitute response fields per environment name
	EnvironmentOverrides map[string]EnvironmentOverride `json:"environmentOverrides,omitempty" yaml:"environmentOverrides,omitempty"`

	// Validation rejects non-conforming request bodies before a response
	// is composed
	Validation *ValidationRules `json:"validation,omitempty" yaml:"validation,omitempty"`

	// Status is active or inactive (active when unset)
	Status Status `json:"status,omitempty" yaml:"status,omitempty"`

	// Tags are free-form labels for filtering in the admin API
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// CreatedAt is when the endpoint was created
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`

	// UpdatedAt is bumped on every mutation, including history restores
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// IsActive reports whether the endpoint participates in matching.
// An empty status counts as active.
func (e *Endpoint) IsActive() bool {
	return e.Status == "" || e.Status == StatusActive
}

// Normalize fills in defaults that admin clients may omit.
func (e *Endpoint) Normalize() {
	if e.StatusCode == 0 {
		e.StatusCode = 200
	}
	if e.Status == "" {
		e.Status = StatusActive
	}
}

// ============================================================================
// Conditional responses
// ============================================================================

// ConditionSource names where a condition reads its value from.
type ConditionSource string

const (
	SourceQuery  ConditionSource = "query"
	SourceHeader ConditionSource = "header"
	SourceBody   ConditionSource = "body"
)

// ConditionOperator is the comparison applied to the extracted value.
type ConditionOperator string

const (
	OpEquals     ConditionOperator = "eq"
	OpNotEquals  ConditionOperator = "neq"
	OpContains   ConditionOperator = "contains"
	OpStartsWith ConditionOperator = "startsWith"
	OpEndsWith   ConditionOperator = "endsWith"
	OpRegex      ConditionOperator = "regex"
	OpExists     ConditionOperator = "exists"
)

// Condition reads a single request value and compares it. Field is a query
// key, a header name, or a dot-separated path into the parsed request body.
type Condition struct {
	Source   ConditionSource   `json:"source" yaml:"source"`
	Field    string            `json:"field" yaml:"field"`
	Operator ConditionOperator `json:"operator" yaml:"operator"`
	Value    string            `json:"value,omitempty" yaml:"value,omitempty"`
}

// ConditionalResponse replaces the default response when all of its
// conditions match the request.
type ConditionalResponse struct {
	Name       string      `json:"name,omitempty" yaml:"name,omitempty"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
	Status     int         `json:"status,omitempty" yaml:"status,omitempty"`
	Body       any         `json:"body,omitempty" yaml:"body,omitempty"`
	Delay      *Delay      `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// ============================================================================
// Scenarios
// ============================================================================

// ScenarioMode selects how a scenario picks the next response.
type ScenarioMode string

const (
	ScenarioSequential ScenarioMode = "sequential"
	ScenarioRandom     ScenarioMode = "random"
	ScenarioWeighted   ScenarioMode = "weighted"
)

// ScenarioConfig rotates an endpoint through multiple responses across
// requests. A per-endpoint counter drives sequential mode and auto-resets
// after ResetAfter seconds of inactivity (0 disables the reset).
type ScenarioConfig struct {
	Enabled    bool               `json:"enabled" yaml:"enabled"`
	Mode       ScenarioMode       `json:"mode" yaml:"mode"`
	Responses  []ScenarioResponse `json:"responses" yaml:"responses"`
	ResetAfter int                `json:"resetAfter,omitempty" yaml:"resetAfter,omitempty"`
	Loop       *bool              `json:"loop,omitempty" yaml:"loop,omitempty"`
}

// LoopEnabled reports whether sequential mode wraps around after the last
// response. Defaults to true when unset.
func (s *ScenarioConfig) LoopEnabled() bool {
	return s.Loop == nil || *s.Loop
}

// ScenarioResponse is one response in a scenario rotation. Order drives
// sequential mode (missing = 0); Weight drives weighted mode (missing = 1).
type ScenarioResponse struct {
	Order  int    `json:"order,omitempty" yaml:"order,omitempty"`
	Weight int    `json:"weight,omitempty" yaml:"weight,omitempty"`
	Status int    `json:"status,omitempty" yaml:"status,omitempty"`
	Body   any    `json:"body,omitempty" yaml:"body,omitempty"`
	Delay  *Delay `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// ============================================================================
// Proxy
// ============================================================================

// ProxyConfig forwards matched requests to a real upstream. When enabled
// the rest of the response pipeline is skipped.
type ProxyConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// TargetURL is the upstream base URL the rewritten path is joined to
	TargetURL string `json:"targetUrl" yaml:"targetUrl"`

	// PathRewrite rules are tried in order; the first regex that matches
	// the incoming path performs its replacement
	PathRewrite PathRewrites `json:"pathRewrite,omitempty" yaml:"pathRewrite,omitempty"`

	// Headers are static headers added to the forwarded request
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`

	// Timeout is the upstream call timeout in milliseconds (30000 when unset)
	Timeout int `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// CacheResponse enables caching of successful upstream responses
	CacheResponse bool `json:"cacheResponse,omitempty" yaml:"cacheResponse,omitempty"`

	// CacheTTL is the cache entry lifetime in seconds (300 when unset)
	CacheTTL int `json:"cacheTtl,omitempty" yaml:"cacheTtl,omitempty"`
}

// TimeoutDuration returns the upstream timeout, defaulting to 30 seconds.
func (p *ProxyConfig) TimeoutDuration() time.Duration {
	if p.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.Timeout) * time.Millisecond
}

// CacheTTLDuration returns the cache lifetime, defaulting to 300 seconds.
func (p *ProxyConfig) CacheTTLDuration() time.Duration {
	if p.CacheTTL <= 0 {
		return 300 * time.Second
	}
	return time.Duration(p.CacheTTL) * time.Second
}

// PathRewrite is a single rewrite rule for the incoming request path.
type PathRewrite struct {
	Pattern     string `json:"pattern" yaml:"pattern"`
	Replacement string `json:"replacement" yaml:"replacement"`
}

// ============================================================================
// Authentication
// ============================================================================

// AuthMethod selects the simulated authentication scheme.
type AuthMethod string

const (
	AuthBearer AuthMethod = "bearer"
	AuthJWT    AuthMethod = "jwt"
	AuthAPIKey AuthMethod = "apiKey"
	AuthBasic  AuthMethod = "basic"
	AuthNone   AuthMethod = "none"
)

// AuthConfig simulates authentication. It is used both per endpoint and as
// the global settings; an enabled endpoint config overrides the global one.
type AuthConfig struct {
	Enabled bool       `json:"enabled" yaml:"enabled"`
	Method  AuthMethod `json:"method" yaml:"method"`

	// ExcludePaths are glob patterns (* and ? wildcards) for request paths
	// that skip authentication entirely
	ExcludePaths []string `json:"excludePaths,omitempty" yaml:"excludePaths,omitempty"`

	// ErrorStatusCode overrides the status returned on auth failure (401
	// when unset)
	ErrorStatusCode int `json:"errorStatusCode,omitempty" yaml:"errorStatusCode,omitempty"`

	// ErrorResponse overrides the body returned on auth failure
	ErrorResponse any `json:"errorResponse,omitempty" yaml:"errorResponse,omitempty"`

	Bearer *BearerAuthConfig `json:"bearerConfig,omitempty" yaml:"bearerConfig,omitempty"`
	JWT    *JWTAuthConfig    `json:"jwtConfig,omitempty" yaml:"jwtConfig,omitempty"`
	APIKey *APIKeyAuthConfig `json:"apiKeyConfig,omitempty" yaml:"apiKeyConfig,omitempty"`
	Basic  *BasicAuthConfig  `json:"basicConfig,omitempty" yaml:"basicConfig,omitempty"`
}

// BearerAuthConfig accepts tokens from a fixed list, or any non-empty token
// when AcceptAny is set.
type BearerAuthConfig struct {
	ValidTokens []string `json:"validTokens,omitempty" yaml:"validTokens,omitempty"`
	AcceptAny   bool     `json:"acceptAny,omitempty" yaml:"acceptAny,omitempty"`
}

// JWTAuthConfig checks the structure and claims of a JWT without verifying
// its signature.
type JWTAuthConfig struct {
	CheckExpiry    bool     `json:"checkExpiry,omitempty" yaml:"checkExpiry,omitempty"`
	RequiredClaims []string `json:"requiredClaims,omitempty" yaml:"requiredClaims,omitempty"`
	ValidIssuers   []string `json:"validIssuers,omitempty" yaml:"validIssuers,omitempty"`
	ValidAudiences []string `json:"validAudiences,omitempty" yaml:"validAudiences,omitempty"`
}

// APIKeyAuthConfig reads a key from a header (X-API-Key when unset) or,
// if QueryParam is set, from that query parameter.
type APIKeyAuthConfig struct {
	Header     string   `json:"header,omitempty" yaml:"header,omitempty"`
	QueryParam string   `json:"queryParam,omitempty" yaml:"queryParam,omitempty"`
	ValidKeys  []string `json:"validKeys,omitempty" yaml:"validKeys,omitempty"`
}

// BasicAuthConfig maps usernames to the password accepted for each.
type BasicAuthConfig struct {
	Credentials map[string]string `json:"credentials,omitempty" yaml:"credentials,omitempty"`
}

// ============================================================================
// Rate limiting
// ============================================================================

// RateLimitKey selects what identifies a client for rate limiting.
type RateLimitKey string

const (
	KeyByIP     RateLimitKey = "ip"
	KeyByHeader RateLimitKey = "header"
	KeyByQuery  RateLimitKey = "query"
)

// RateLimitConfig throttles an endpoint with a fixed window per client key.
// A request is allowed while the window count is below
// RequestsPerWindow+BurstLimit.
type RateLimitConfig struct {
	RequestsPerWindow int `json:"requestsPerWindow" yaml:"requestsPerWindow"`
	WindowSeconds     int `json:"windowSeconds" yaml:"windowSeconds"`
	BurstLimit        int `json:"burstLimit,omitempty" yaml:"burstLimit,omitempty"`

	// KeyBy is ip, header, or query (ip when unset); KeyName names the
	// header or query parameter for the latter two
	KeyBy   RateLimitKey `json:"keyBy,omitempty" yaml:"keyBy,omitempty"`
	KeyName string       `json:"keyName,omitempty" yaml:"keyName,omitempty"`

	// ErrorStatusCode overrides the status returned on deny (429 when unset)
	ErrorStatusCode int `json:"errorStatusCode,omitempty" yaml:"errorStatusCode,omitempty"`

	// ErrorResponse overrides the body returned on deny
	ErrorResponse any `json:"errorResponse,omitempty" yaml:"errorResponse,omitempty"`
}

// WindowDuration returns the window size, defaulting to one minute.
func (c *RateLimitConfig) WindowDuration() time.Duration {
	if c.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.WindowSeconds) * time.Second
}

// DenyStatusCode returns the status sent on deny, defaulting to 429.
func (c *RateLimitConfig) DenyStatusCode() int {
	if c.ErrorStatusCode <= 0 {
		return http.StatusTooManyRequests
	}
	return c.ErrorStatusCode
}

// ============================================================================
// Environments
// ============================================================================

// EnvironmentOverride substitutes response fields when the request resolves
// to its environment. Enabled=false turns the override off without deleting
// it; unset counts as enabled.
type EnvironmentOverride struct {
	Enabled *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Status  int    `json:"status,omitempty" yaml:"status,omitempty"`
	Body    any    `json:"body,omitempty" yaml:"body,omitempty"`
	Delay   *Delay `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// IsEnabled reports whether the override applies.
func (o *EnvironmentOverride) IsEnabled() bool {
	return o.Enabled == nil || *o.Enabled
}

// ============================================================================
// Request validation
// ============================================================================

// ValidationRules describe what a request body must look like before the
// endpoint serves a response. Required lists top-level fields that must be
// present; Schema is an inline JSON Schema the body must satisfy.
type ValidationRules struct {
	Required []string `json:"required,omitempty" yaml:"required,omitempty"`
	Schema   any      `json:"schema,omitempty" yaml:"schema,omitempty"`

	// FailStatus is the status returned on a failing body (400 when unset)
	FailStatus int `json:"failStatus,omitempty" yaml:"failStatus,omitempty"`
}

// IsEmpty reports whether there is nothing to validate.
func (v *ValidationRules) IsEmpty() bool {
	return v == nil || (len(v.Required) == 0 && v.Schema == nil)
}

// RejectStatusCode returns the status sent on a failing body, defaulting
// to 400.
func (v *ValidationRules) RejectStatusCode() int {
	if v.FailStatus <= 0 {
		return http.StatusBadRequest
	}
	return v.FailStatus
}
