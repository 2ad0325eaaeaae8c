package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mockbird/mockbird/pkg/admin"
	"github.com/mockbird/mockbird/pkg/auth"
	"github.com/mockbird/mockbird/pkg/config"
	"github.com/mockbird/mockbird/pkg/environment"
	"github.com/mockbird/mockbird/pkg/graphql"
	"github.com/mockbird/mockbird/pkg/httputil"
	"github.com/mockbird/mockbird/pkg/logging"
	"github.com/mockbird/mockbird/pkg/metrics"
	"github.com/mockbird/mockbird/pkg/proxy"
	"github.com/mockbird/mockbird/pkg/ratelimit"
	"github.com/mockbird/mockbird/pkg/requestlog"
	"github.com/mockbird/mockbird/pkg/scenario"
	"github.com/mockbird/mockbird/pkg/store"
	"github.com/mockbird/mockbird/pkg/store/file"
	"github.com/mockbird/mockbird/pkg/template"
	"github.com/mockbird/mockbird/pkg/validation"
	"github.com/mockbird/mockbird/pkg/websocket"
)

// shutdownTimeout bounds how long Stop waits for in-flight requests.
const shutdownTimeout = 5 * time.Second

// Server owns the full service graph and the HTTP listener. Construct
// with New, then Start; all traffic shares a single port.
type Server struct {
	mu        sync.RWMutex
	running   bool
	startTime time.Time

	cfg     *config.Config
	log     *slog.Logger
	version string

	store        store.Store
	files        *file.Store
	logs         *requestlog.MemoryStore
	counters     *scenario.Counters
	selector     *scenario.Selector
	authSettings *auth.Settings
	limiter      *ratelimit.Limiter
	forwarder    *proxy.Forwarder
	environments *environment.Settings
	templates    *template.Engine
	websockets   *websocket.Manager
	graphql      *graphql.Engine

	wsHandler  *websocket.Handler
	gqlHandler *graphql.Handler
	adminAPI   *admin.API
	metrics    *metrics.Metrics
	pipeline   *Handler

	specValidator *validation.OpenAPIValidator
	rejectSpec    bool

	collection        *config.Collection
	replaceCollection bool

	dataFile string

	handler    http.Handler
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the operational logger shared by every service.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithStore injects a pre-built endpoint store and disables file
// persistence. Used by tests and by embedders that manage durability
// themselves.
func WithStore(st store.Store) Option {
	return func(s *Server) {
		if st != nil {
			s.store = st
		}
	}
}

// WithDataFile sets the persistence snapshot path.
func WithDataFile(path string) Option {
	return func(s *Server) { s.dataFile = path }
}

// WithVersion sets the version reported by the health endpoint and the
// root info document.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// WithOpenAPIValidator checks every mock request against an OpenAPI
// document before it reaches the pipeline. With reject set,
// non-conforming requests are answered 400; otherwise they are logged
// and served anyway.
func WithOpenAPIValidator(v *validation.OpenAPIValidator, reject bool) Option {
	return func(s *Server) {
		s.specValidator = v
		s.rejectSpec = reject
	}
}

// WithCollection loads the collection during Start, after persisted
// endpoints are read. With replace set it supplants whatever the
// snapshot held.
func WithCollection(c *config.Collection, replace bool) Option {
	return func(s *Server) {
		s.collection = c
		s.replaceCollection = replace
	}
}

// New wires the full service graph. Nothing listens until Start.
func New(cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = &config.Config{Port: config.DefaultPort}
	}
	s := &Server{
		cfg:     cfg,
		log:     logging.Nop(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		fs := file.New(s.dataFile, file.WithLogger(s.log))
		s.store = fs
		s.files = fs
	}

	s.logs = requestlog.NewMemoryStore(requestlog.DefaultCapacity)
	s.counters = scenario.NewCounters()
	s.selector = scenario.NewSelector(s.counters)
	s.authSettings = auth.NewSettings()
	s.limiter = ratelimit.NewLimiter()
	s.forwarder = proxy.NewForwarder(proxy.WithLogger(s.log))
	s.environments = environment.NewSettings()
	s.templates = template.NewWithLogger(s.log)
	s.websockets = websocket.NewManager(websocket.WithLogger(s.log))
	s.graphql = graphql.NewEngine()

	s.wsHandler = websocket.NewHandler(s.websockets)
	s.gqlHandler = graphql.NewHandler(s.graphql, graphql.WithLogger(s.log))

	s.metrics = metrics.New(metrics.Source{
		HTTPEndpoints:      s.store.Count,
		WebSocketEndpoints: s.websockets.CountEndpoints,
		GraphQLEndpoints:   s.graphql.Count,
		WebSocketConnections: func() int {
			return s.websockets.Stats().ActiveConnections
		},
	})

	adminOpts := []admin.Option{admin.WithLogger(s.log)}
	if cfg.TeamEnabled {
		adminOpts = append(adminOpts, admin.WithTeamAuth(cfg.AdminTokens, cfg.TeamRequireAuth))
	}
	s.adminAPI = admin.New(admin.Deps{
		Store:        s.store,
		Logs:         s.logs,
		Counters:     s.counters,
		AuthSettings: s.authSettings,
		Limiter:      s.limiter,
		ProxyCache:   s.forwarder.Cache(),
		Environments: s.environments,
		WebSockets:   s.websockets,
		GraphQL:      s.graphql,
		Uptime:       s.Uptime,
		Version:      s.version,
	}, adminOpts...)

	s.pipeline = newHandler(s)
	s.handler = s.routes()
	return s
}

// routes assembles the route tree. The mock surface is mounted under
// /mock with the prefix stripped before matching; registered GraphQL
// paths live anywhere, resolved by the fallback root handler.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	var mock http.Handler = s.pipeline
	if s.specValidator != nil {
		mock = s.specValidator.Middleware(s.rejectSpec, s.log)(mock)
	}
	mux.Handle("/mock/", http.StripPrefix("/mock", mock))
	mux.Handle("/ws/", s.wsHandler)
	mux.Handle("/api/admin/", s.adminAPI.Handler())
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/", s.handleRoot)

	return s.observeRequests(mux)
}

// handleRoot answers registered GraphQL paths and serves a small info
// document at /.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.graphql.EndpointByPath(r.URL.Path); ok {
		s.gqlHandler.ServeHTTP(w, r)
		return
	}
	if r.URL.Path != "/" {
		httputil.WriteError(w, http.StatusNotFound, "Not Found",
			fmt.Sprintf("no route for %s; mock endpoints are served under /mock", r.URL.Path))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"name":    "mockbird",
		"version": s.version,
		"surfaces": map[string]string{
			"mock":      "/mock",
			"websocket": "/ws",
			"admin":     "/api/admin",
			"metrics":   "/metrics",
			"health":    "/api/admin/health",
		},
	})
}

// Start opens persistence, loads any configured collection, seeds
// sample endpoints when everything is empty, and begins listening.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	if s.files != nil {
		if err := s.files.Open(); err != nil {
			return fmt.Errorf("opening endpoint store: %w", err)
		}
	}
	if s.collection != nil {
		n, err := s.LoadCollection(s.collection, s.replaceCollection)
		if err != nil {
			return fmt.Errorf("loading collection: %w", err)
		}
		s.log.Info("collection loaded", "definitions", n)
	}
	if n := s.maybeSeed(); n > 0 {
		s.log.Info("seeded sample endpoints", "count", n)
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("http server stopped", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	s.log.Info("mockbird started", "port", s.cfg.Port, "env", s.cfg.Env)
	return nil
}

// Stop shuts the listener down and releases every service. Calling it
// on a server that never started is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.websockets.Close(); err != nil {
		errs = append(errs, fmt.Errorf("websocket close: %w", err))
	}
	s.limiter.Close()
	s.adminAPI.Close()
	if s.files != nil {
		if err := s.files.Close(); err != nil {
			errs = append(errs, fmt.Errorf("endpoint store close: %w", err))
		}
	}

	s.running = false
	s.log.Info("mockbird stopped")
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// IsRunning reports whether the listener is up.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime is the time since Start in whole seconds, zero when stopped.
func (s *Server) Uptime() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return int(time.Since(s.startTime).Seconds())
}

// LoadCollection installs a collection's definitions. With replace set
// the registries are swapped wholesale; otherwise definitions are
// appended and the first conflict aborts the load.
func (s *Server) LoadCollection(c *config.Collection, replace bool) (int, error) {
	if c == nil {
		return 0, nil
	}
	if replace {
		s.store.Replace(c.Endpoints)
		s.websockets.ReplaceAll(c.WebSocketEndpoints)
		s.graphql.ReplaceAll(c.GraphQLEndpoints)
		return c.Total(), nil
	}

	added := 0
	for _, ep := range c.Endpoints {
		if _, err := s.store.Create(ep); err != nil {
			return added, fmt.Errorf("endpoint %s %s: %w", ep.Method, ep.Path, err)
		}
		added++
	}
	for _, ws := range c.WebSocketEndpoints {
		if _, err := s.websockets.CreateEndpoint(ws); err != nil {
			return added, fmt.Errorf("websocket endpoint %s: %w", ws.Path, err)
		}
		added++
	}
	for _, gq := range c.GraphQLEndpoints {
		if _, err := s.graphql.CreateEndpoint(gq); err != nil {
			return added, fmt.Errorf("graphql endpoint %s: %w", gq.Path, err)
		}
		added++
	}
	return added, nil
}

// Handler exposes the full route tree, mainly for tests driving the
// server through httptest.
func (s *Server) Handler() http.Handler { return s.handler }

// Store returns the endpoint registry.
func (s *Server) Store() store.Store { return s.store }

// Logs returns the request log store.
func (s *Server) Logs() *requestlog.MemoryStore { return s.logs }

// WebSockets returns the WebSocket manager.
func (s *Server) WebSockets() *websocket.Manager { return s.websockets }

// GraphQL returns the GraphQL engine.
func (s *Server) GraphQL() *graphql.Engine { return s.graphql }
