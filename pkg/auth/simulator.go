// Package auth simulates API authentication for mock endpoints. Credentials
// are checked structurally against the configured method; JWT signatures are
// never verified.
package auth

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

// Result is the outcome of validating a request against an auth config.
type Result struct {
	Valid  bool                `json:"valid"`
	Method endpoint.AuthMethod `json:"method"`
	Error  string              `json:"error,omitempty"`

	// Decoded holds the JWT payload claims when the token decoded,
	// regardless of whether the checks passed.
	Decoded map[string]any `json:"decoded,omitempty"`
}

// Validate checks the request credentials against the config's method.
// Enablement and path exclusions are the caller's concern.
func Validate(r *http.Request, cfg *endpoint.AuthConfig) *Result {
	switch cfg.Method {
	case endpoint.AuthBearer:
		return validateBearer(r, cfg.Bearer)
	case endpoint.AuthJWT:
		return validateJWT(r, cfg.JWT)
	case endpoint.AuthAPIKey:
		return validateAPIKey(r, cfg.APIKey)
	case endpoint.AuthBasic:
		return validateBasic(r, cfg.Basic)
	case endpoint.AuthNone, "":
		return &Result{Valid: true, Method: endpoint.AuthNone}
	}
	return &Result{Method: cfg.Method, Error: "unsupported auth method: " + string(cfg.Method)}
}

// Challenge returns the WWW-Authenticate value sent with a failure for the
// given method, or empty when the scheme has no challenge.
func Challenge(method endpoint.AuthMethod) string {
	switch method {
	case endpoint.AuthBearer, endpoint.AuthJWT:
		return "Bearer"
	case endpoint.AuthBasic:
		return `Basic realm="mock"`
	}
	return ""
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func validateBearer(r *http.Request, cfg *endpoint.BearerAuthConfig) *Result {
	res := &Result{Method: endpoint.AuthBearer}

	token, ok := bearerToken(r)
	if !ok || token == "" {
		res.Error = "missing bearer token"
		return res
	}
	if cfg != nil && (cfg.AcceptAny || slices.Contains(cfg.ValidTokens, token)) {
		res.Valid = true
		return res
	}
	res.Error = "invalid token"
	return res
}

func validateJWT(r *http.Request, cfg *endpoint.JWTAuthConfig) *Result {
	res := &Result{Method: endpoint.AuthJWT}

	raw, ok := bearerToken(r)
	if !ok || raw == "" {
		res.Error = "missing bearer token"
		return res
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		res.Error = "malformed token"
		return res
	}
	res.Decoded = map[string]any(claims)

	if cfg == nil {
		res.Valid = true
		return res
	}
	if cfg.CheckExpiry {
		exp, err := claims.GetExpirationTime()
		if err != nil || exp == nil || exp.Before(time.Now()) {
			res.Error = "token expired"
			return res
		}
	}
	for _, claim := range cfg.RequiredClaims {
		if _, present := claims[claim]; !present {
			res.Error = "missing required claim: " + claim
			return res
		}
	}
	if len(cfg.ValidIssuers) > 0 {
		iss, _ := claims.GetIssuer()
		if !slices.Contains(cfg.ValidIssuers, iss) {
			res.Error = "invalid issuer"
			return res
		}
	}
	if len(cfg.ValidAudiences) > 0 {
		aud, _ := claims.GetAudience()
		if !intersects(aud, cfg.ValidAudiences) {
			res.Error = "invalid audience"
			return res
		}
	}
	res.Valid = true
	return res
}

func intersects(a, b []string) bool {
	for _, v := range a {
		if slices.Contains(b, v) {
			return true
		}
	}
	return false
}

func validateAPIKey(r *http.Request, cfg *endpoint.APIKeyAuthConfig) *Result {
	res := &Result{Method: endpoint.AuthAPIKey}

	header := "X-API-Key"
	if cfg != nil && cfg.Header != "" {
		header = cfg.Header
	}
	key := r.Header.Get(header)
	if key == "" && cfg != nil && cfg.QueryParam != "" {
		key = r.URL.Query().Get(cfg.QueryParam)
	}
	if key == "" {
		res.Error = "missing API key"
		return res
	}
	if cfg != nil && slices.Contains(cfg.ValidKeys, key) {
		res.Valid = true
		return res
	}
	res.Error = "invalid API key"
	return res
}

func validateBasic(r *http.Request, cfg *endpoint.BasicAuthConfig) *Result {
	res := &Result{Method: endpoint.AuthBasic}

	username, password, ok := r.BasicAuth()
	if !ok {
		res.Error = "missing credentials"
		return res
	}
	if username == "" || password == "" {
		res.Error = "invalid credentials"
		return res
	}
	if cfg != nil {
		if want, exists := cfg.Credentials[username]; exists && want == password {
			res.Valid = true
			return res
		}
	}
	res.Error = "invalid credentials"
	return res
}
