package admin

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/mockbird/mockbird/pkg/config"
	"github.com/mockbird/mockbird/pkg/httputil"
)

// healthPath is always reachable without a token so probes and load
// balancers keep working when team auth is on.
const healthPath = "/api/admin/health"

// CORSConfig holds the CORS policy for the admin API.
type CORSConfig struct {
	// AllowedOrigins lists origins allowed to make cross-origin
	// requests. Empty or containing "*" allows all origins.
	AllowedOrigins []string

	// AllowedMethods lists HTTP methods allowed for cross-origin
	// requests. Default: GET, POST, PUT, PATCH, DELETE, OPTIONS.
	AllowedMethods []string

	// AllowedHeaders lists headers allowed in cross-origin requests.
	// Default: Content-Type, Authorization.
	AllowedHeaders []string

	// AllowCredentials permits cookies and authorization headers on
	// cross-origin requests. When true, AllowedOrigins cannot contain
	// "*"; specific origins must be listed.
	AllowCredentials bool

	// MaxAge is how long (in seconds) a preflight result may be
	// cached. Default: 86400.
	MaxAge int
}

// DefaultCORSConfig allows all origins without credentials. Deployments
// that expose the admin port beyond localhost should list explicit
// origins via WithCORS instead.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	}
}

func (c *CORSConfig) isOriginAllowed(origin string) bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// getAllowOriginValue returns the Access-Control-Allow-Origin value,
// or "" when the origin is not allowed.
func (c *CORSConfig) getAllowOriginValue(origin string) string {
	// With credentials the specific origin must be echoed, never "*".
	if c.AllowCredentials {
		if c.isOriginAllowed(origin) && origin != "" {
			return origin
		}
		return ""
	}

	if len(c.AllowedOrigins) == 0 {
		return "*"
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" {
			return "*"
		}
	}

	if c.isOriginAllowed(origin) {
		return origin
	}
	return ""
}

func (c *CORSConfig) getMethods() string {
	if len(c.AllowedMethods) == 0 {
		return "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	}
	return strings.Join(c.AllowedMethods, ", ")
}

func (c *CORSConfig) getHeaders() string {
	if len(c.AllowedHeaders) == 0 {
		return "Content-Type, Authorization"
	}
	return strings.Join(c.AllowedHeaders, ", ")
}

func (c *CORSConfig) getMaxAge() string {
	if c.MaxAge <= 0 {
		return "86400"
	}
	return strconv.Itoa(c.MaxAge)
}

// corsMiddleware applies the configured CORS policy and answers
// preflight requests.
func (a *API) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// The response depends on the Origin header, cacheable or not.
		w.Header().Add("Vary", "Origin")

		allowOrigin := a.cors.getAllowOriginValue(origin)
		if allowOrigin == "" {
			// Origin not allowed; process the request anyway and let
			// the browser block the response.
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", a.cors.getMethods())
		w.Header().Set("Access-Control-Allow-Headers", a.cors.getHeaders())
		w.Header().Set("Access-Control-Max-Age", a.cors.getMaxAge())

		if a.cors.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders adds headers that protect against clickjacking, XSS,
// MIME sniffing, and caching of sensitive responses.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

// tokenAuth validates admin bearer tokens and attaches the caller's
// role to the request context.
type tokenAuth struct {
	tokens      []config.Token
	requireAuth bool
}

func newTokenAuth(tokens []config.Token, requireAuth bool) *tokenAuth {
	return &tokenAuth{tokens: tokens, requireAuth: requireAuth}
}

// lookup finds the token entry matching the given value. Comparison is
// constant-time to prevent timing attacks.
func (t *tokenAuth) lookup(value string) (config.Token, bool) {
	provided := []byte(value)
	var found config.Token
	var ok bool
	for _, tok := range t.tokens {
		if subtle.ConstantTimeCompare(provided, []byte(tok.Token)) == 1 {
			found = tok
			ok = true
		}
	}
	return found, ok
}

func (t *tokenAuth) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthPath {
			next.ServeHTTP(w, r)
			return
		}
		// Preflight requests carry no Authorization header.
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			if t.requireAuth {
				httputil.WriteEnvelopeError(w, http.StatusUnauthorized, "missing_token",
					"authentication required: provide Authorization: Bearer <token>")
				return
			}
			// Tokens identify rather than gate: without one the
			// caller acts as admin.
			next.ServeHTTP(w, r.WithContext(withRole(r.Context(), config.RoleAdmin)))
			return
		}

		entry, ok := t.lookup(token)
		if !ok {
			httputil.WriteEnvelopeError(w, http.StatusUnauthorized, "invalid_token", "unknown admin token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withRole(r.Context(), entry.Role)))
	})
}

// bearerToken extracts the token from the Authorization header, or ""
// when absent.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

type contextKey string

const roleKey contextKey = "admin-role"

func withRole(ctx context.Context, role config.Role) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

// roleFrom returns the caller's role. Requests that never passed
// through token auth (team mode off) act as admin.
func roleFrom(ctx context.Context) config.Role {
	if role, ok := ctx.Value(roleKey).(config.Role); ok {
		return role
	}
	return config.RoleAdmin
}

var roleRank = map[config.Role]int{
	config.RoleViewer: 1,
	config.RoleEditor: 2,
	config.RoleAdmin:  3,
}

// requireRole rejects callers below the minimum role with 403.
func (a *API) requireRole(min config.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if roleRank[roleFrom(r.Context())] < roleRank[min] {
			httputil.WriteEnvelopeError(w, http.StatusForbidden, "forbidden",
				"this action requires the "+string(min)+" role")
			return
		}
		next(w, r)
	}
}
