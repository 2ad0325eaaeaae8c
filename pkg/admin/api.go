package admin

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mockbird/mockbird/pkg/auth"
	"github.com/mockbird/mockbird/pkg/config"
	"github.com/mockbird/mockbird/pkg/environment"
	"github.com/mockbird/mockbird/pkg/graphql"
	"github.com/mockbird/mockbird/pkg/httputil"
	"github.com/mockbird/mockbird/pkg/logging"
	"github.com/mockbird/mockbird/pkg/proxy"
	"github.com/mockbird/mockbird/pkg/ratelimit"
	"github.com/mockbird/mockbird/pkg/requestlog"
	"github.com/mockbird/mockbird/pkg/scenario"
	"github.com/mockbird/mockbird/pkg/store"
	"github.com/mockbird/mockbird/pkg/websocket"
)

// Default admin rate limit: generous enough for dashboards polling
// every endpoint, tight enough to stop a runaway script.
const (
	DefaultGuardRPS   = 50
	DefaultGuardBurst = 100
)

// Deps are the live services the admin API manages. Everything except
// Uptime and Version must be non-nil.
type Deps struct {
	Store        store.Store
	Logs         *requestlog.MemoryStore
	Counters     *scenario.Counters
	AuthSettings *auth.Settings
	Limiter      *ratelimit.Limiter
	ProxyCache   *proxy.Cache
	Environments *environment.Settings
	WebSockets   *websocket.Manager
	GraphQL      *graphql.Engine

	// Uptime reports server uptime in whole seconds for the health
	// endpoint. Nil reads as zero.
	Uptime func() int

	// Version is reported by the health endpoint.
	Version string
}

// API is the admin surface. Construct it with New and mount Handler
// into the server mux; it has no listener of its own.
type API struct {
	deps Deps
	log  *slog.Logger

	tokens *tokenAuth
	cors   CORSConfig
	guard  *ratelimit.AdminGuard
	now    func() time.Time

	handler http.Handler
}

// Option configures the API.
type Option func(*API)

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.log = logger
		}
	}
}

// WithTeamAuth enables bearer-token authentication on everything but
// the health endpoint. With requireAuth unset, requests without a
// token act with the admin role and only presented tokens are checked.
func WithTeamAuth(tokens []config.Token, requireAuth bool) Option {
	return func(a *API) {
		a.tokens = newTokenAuth(tokens, requireAuth)
	}
}

// WithCORS replaces the default CORS policy.
func WithCORS(cors CORSConfig) Option {
	return func(a *API) {
		a.cors = cors
	}
}

// WithGuard replaces the default admin rate limit.
func WithGuard(rps float64, burst int) Option {
	return func(a *API) {
		a.guard = ratelimit.NewAdminGuard(rps, burst)
	}
}

// New assembles the admin API around the given services.
func New(deps Deps, opts ...Option) *API {
	a := &API{
		deps: deps,
		log:  logging.Nop(),
		cors: DefaultCORSConfig(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.guard == nil {
		a.guard = ratelimit.NewAdminGuard(DefaultGuardRPS, DefaultGuardBurst)
	}

	mux := http.NewServeMux()
	a.registerRoutes(mux)
	a.handler = a.withMiddleware(mux)
	return a
}

// Handler returns the admin handler with all middleware applied.
func (a *API) Handler() http.Handler {
	return a.handler
}

// Close releases the rate-limit guard's background resources.
func (a *API) Close() {
	a.guard.Close()
}

// withMiddleware wraps the router with the admin middleware chain.
// Order, outermost first: request logging, security headers, CORS,
// token auth, rate limiting.
func (a *API) withMiddleware(next http.Handler) http.Handler {
	handler := a.guardMiddleware(next)
	if a.tokens != nil {
		handler = a.tokens.middleware(handler)
	}
	handler = a.corsMiddleware(handler)
	handler = SecurityHeaders(handler)
	handler = a.logMiddleware(handler)
	return handler
}

func (a *API) guardMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.guard.Allow(r) {
			httputil.WriteEnvelopeError(w, http.StatusTooManyRequests, "rate_limited", "too many admin requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := a.now()
		cw := &statusCapturingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(cw, r)
		a.log.Debug("admin request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", cw.statusCode,
			"duration", time.Since(start),
		)
	})
}

// statusCapturingResponseWriter records the status code for the request
// log while passing everything through.
type statusCapturingResponseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
}

func (w *statusCapturingResponseWriter) WriteHeader(code int) {
	if !w.headerWritten {
		w.statusCode = code
		w.headerWritten = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusCapturingResponseWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		w.statusCode = http.StatusOK
		w.headerWritten = true
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying writer for http.ResponseController.
func (w *statusCapturingResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
