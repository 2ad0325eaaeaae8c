package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mockbird/mockbird/internal/matching"
	"github.com/mockbird/mockbird/pkg/auth"
	"github.com/mockbird/mockbird/pkg/endpoint"
	"github.com/mockbird/mockbird/pkg/environment"
	"github.com/mockbird/mockbird/pkg/httputil"
	"github.com/mockbird/mockbird/pkg/proxy"
	"github.com/mockbird/mockbird/pkg/ratelimit"
	"github.com/mockbird/mockbird/pkg/requestlog"
	"github.com/mockbird/mockbird/pkg/scenario"
	"github.com/mockbird/mockbird/pkg/store"
	"github.com/mockbird/mockbird/pkg/template"
	"github.com/mockbird/mockbird/pkg/validation"
)

// MaxRequestBodySize caps mock request bodies at 10MB.
const MaxRequestBodySize = 10 << 20

// Handler is the mock request pipeline. It expects the /mock prefix to
// be stripped already: match, authenticate, rate-limit, validate,
// proxy, compose, template, delay, send, log.
type Handler struct {
	store        store.Store
	logs         *requestlog.MemoryStore
	selector     *scenario.Selector
	auth         *auth.Settings
	limiter      *ratelimit.Limiter
	forwarder    *proxy.Forwarder
	environments *environment.Settings
	templates    *template.Engine
	log          *slog.Logger
}

func newHandler(s *Server) *Handler {
	return &Handler{
		store:        s.store,
		logs:         s.logs,
		selector:     s.selector,
		auth:         s.authSettings,
		limiter:      s.limiter,
		forwarder:    s.forwarder,
		environments: s.environments,
		templates:    s.templates,
		log:          s.log,
	}
}

// outcome is what the pipeline decided, used for the request log. The
// status mirrors what was written unless the client went away first.
type outcome struct {
	status int
	data   any
}

// mockResponse guards against double writes: the first WriteHeader
// wins, later ones are dropped. The pipeline writes exactly one
// response through it per request.
type mockResponse struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (m *mockResponse) WriteHeader(code int) {
	if m.wrote {
		return
	}
	m.wrote = true
	m.status = code
	m.ResponseWriter.WriteHeader(code)
}

func (m *mockResponse) Write(b []byte) (int, error) {
	if !m.wrote {
		m.WriteHeader(http.StatusOK)
	}
	return m.ResponseWriter.Write(b)
}

func (m *mockResponse) Unwrap() http.ResponseWriter { return m.ResponseWriter }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	mw := &mockResponse{ResponseWriter: w}

	raw, tooLarge := h.readBody(mw, r)
	if tooLarge {
		data := map[string]any{
			"error":   "Payload Too Large",
			"message": fmt.Sprintf("request body exceeds %d bytes", MaxRequestBodySize),
		}
		httputil.WriteJSON(mw, http.StatusRequestEntityTooLarge, data)
		h.logEntry(r, start, requestlog.EndpointNotFound, http.StatusRequestEntityTooLarge, data, nil)
		return
	}
	parsed := parseBody(raw)

	ep, params, ok := h.store.FindByPath(r.Method, r.URL.Path)
	if !ok {
		data := h.writeNotFound(mw, r)
		h.logEntry(r, start, requestlog.EndpointNotFound, http.StatusNotFound, data, parsed)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error("mock pipeline panic",
				"method", r.Method,
				"path", r.URL.Path,
				"endpoint", ep.ID,
				"panic", rec)
			if !mw.wrote {
				httputil.WriteError(mw, http.StatusInternalServerError,
					"Internal Server Error", fmt.Sprint(rec))
			}
			h.logEntry(r, start, requestlog.EndpointError, http.StatusInternalServerError, nil, parsed)
		}
	}()

	out := h.serve(mw, r, ep, params, raw, parsed)
	h.logEntry(r, start, ep.ID, out.status, out.data, parsed)
}

// serve runs the matched endpoint through the pipeline. Every return
// path has written at most one response.
func (h *Handler) serve(w *mockResponse, r *http.Request, ep *endpoint.Endpoint, params map[string]string, raw []byte, parsed any) *outcome {
	// Authentication.
	if cfg := auth.Effective(ep.AuthConfig, h.auth.Get()); cfg != nil && !auth.PathExcluded(cfg, r.URL.Path) {
		if res := auth.Validate(r, cfg); !res.Valid {
			return h.denyAuth(w, cfg, res)
		}
	}

	// Rate limiting. The decision is kept so successful responses carry
	// the X-RateLimit headers too.
	var decision *ratelimit.Decision
	if rl := ep.RateLimitConfig; rl != nil && rl.RequestsPerWindow > 0 {
		d := h.limiter.Check(r, ep.ID, rl)
		decision = &d
		if !d.Allowed {
			return h.denyRateLimit(w, rl, d)
		}
	}

	// Request body validation.
	if rules := ep.Validation; !rules.IsEmpty() {
		if res := validation.CheckBody(rules, raw); !res.Valid {
			status := rules.RejectStatusCode()
			data := map[string]any{
				"error":   "Validation Failed",
				"message": "request did not pass validation",
				"details": res.Errors,
			}
			httputil.WriteJSON(w, status, data)
			return &outcome{status: status, data: data}
		}
	}

	// Proxy short-circuit: the rest of the pipeline never runs.
	if pc := ep.ProxyConfig; pc != nil && pc.Enabled && pc.TargetURL != "" {
		return h.forward(w, r, pc, raw, decision)
	}

	// Environment overlay, scenario rotation, conditional responses.
	// Conditionals are consulted only when no scenario fired.
	overlay := h.environments.Overlay(ep, h.environments.Resolve(r))
	chosen := h.selector.Pick(ep.ID, ep.ScenarioConfig)
	var conditional *endpoint.ConditionalResponse
	if chosen == nil {
		conditional = matching.MatchConditional(ep.ConditionalResponses, matching.ConditionInput{
			Query:  r.URL.Query(),
			Header: r.Header,
			Body:   parsed,
		})
	}
	status, data, delay := composeResponse(ep, chosen, conditional, overlay)

	// Template expansion.
	tctx := template.NewContext(r, params, parsed)
	data = h.templates.ProcessValue(data, tctx)

	// Delay. A cancelled context means the client went away; nothing is
	// written but the request still logs with the composed status.
	if err := waitDelay(r.Context(), delay); err != nil {
		return &outcome{status: status, data: data}
	}

	// Headers and send.
	for name, value := range ep.ResponseHeaders {
		w.Header().Set(name, h.templates.Process(value, tctx))
	}
	if decision != nil {
		setRateHeaders(w.Header(), *decision)
	}
	writeMockJSON(w, status, data)
	return &outcome{status: status, data: data}
}

func (h *Handler) denyAuth(w http.ResponseWriter, cfg *endpoint.AuthConfig, res *auth.Result) *outcome {
	if ch := auth.Challenge(cfg.Method); ch != "" {
		w.Header().Set("WWW-Authenticate", ch)
	}
	status := cfg.ErrorStatusCode
	if status <= 0 {
		status = http.StatusUnauthorized
	}
	data := cfg.ErrorResponse
	if data == nil {
		data = map[string]any{"error": "Unauthorized", "message": res.Error}
	}
	httputil.WriteJSON(w, status, data)
	return &outcome{status: status, data: data}
}

func (h *Handler) denyRateLimit(w http.ResponseWriter, cfg *endpoint.RateLimitConfig, d ratelimit.Decision) *outcome {
	setRateHeaders(w.Header(), d)
	w.Header().Set("Retry-After", strconv.Itoa(int(d.RetryAfter/time.Second)))
	status := cfg.DenyStatusCode()
	data := cfg.ErrorResponse
	if data == nil {
		data = map[string]any{"error": "Too Many Requests", "message": "rate limit exceeded"}
	}
	httputil.WriteJSON(w, status, data)
	return &outcome{status: status, data: data}
}

// forward relays the request upstream. Upstream failures answer 502
// with the target named; anything relayed is logged as served.
func (h *Handler) forward(w *mockResponse, r *http.Request, cfg *endpoint.ProxyConfig, raw []byte, decision *ratelimit.Decision) *outcome {
	res, err := h.forwarder.Forward(r, cfg, r.URL.Path, raw)
	if err != nil {
		data := map[string]any{
			"error":   "Bad Gateway",
			"message": err.Error(),
		}
		var ue *proxy.UpstreamError
		if errors.As(err, &ue) {
			data["target"] = ue.Target
			data["message"] = ue.Err.Error()
		}
		httputil.WriteJSON(w, http.StatusBadGateway, data)
		return &outcome{status: http.StatusBadGateway, data: data}
	}

	for name, values := range res.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	if decision != nil {
		setRateHeaders(w.Header(), *decision)
	}
	w.WriteHeader(res.Status)
	_, _ = w.Write(res.Body)
	return &outcome{status: res.Status, data: res.DecodedBody()}
}

// writeNotFound lists the active endpoints so a missed path is easy to
// debug. Returns the body for the request log.
func (h *Handler) writeNotFound(w http.ResponseWriter, r *http.Request) any {
	available := make([]string, 0)
	for _, ep := range h.store.List() {
		if ep.IsActive() {
			available = append(available, ep.Method+" "+ep.Path)
		}
	}
	data := map[string]any{
		"error":              "Not Found",
		"message":            fmt.Sprintf("no mock endpoint matches %s %s", r.Method, r.URL.Path),
		"availableEndpoints": available,
	}
	httputil.WriteJSON(w, http.StatusNotFound, data)
	return data
}

// readBody drains the request body under the size cap. The second
// return is true when the cap was exceeded.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Body == nil {
		return nil, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, true
		}
		h.log.Warn("failed to read request body", "path", r.URL.Path, "error", err)
		return nil, false
	}
	return raw, false
}

func (h *Handler) logEntry(r *http.Request, start time.Time, endpointID string, status int, respData, reqBody any) {
	h.logs.Log(&requestlog.Entry{
		EndpointID:     endpointID,
		Method:         r.Method,
		Path:           r.URL.Path,
		URL:            r.RequestURI,
		QueryParams:    firstValues(r.URL.Query()),
		RequestHeaders: firstHeaderValues(r.Header),
		RequestBody:    reqBody,
		ResponseStatus: status,
		ResponseData:   respData,
		ResponseTime:   int(time.Since(start).Milliseconds()),
		Timestamp:      start,
		ClientIP:       httputil.ClientIP(r),
		UserAgent:      r.UserAgent(),
	})
}

// parseBody decodes the request body: valid JSON keeps its shape,
// anything else is carried as a raw string.
func parseBody(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	return string(raw)
}

// writeMockJSON sends the composed body as JSON unless the endpoint's
// headers already picked a content type. A nil body sends the status
// alone.
func writeMockJSON(w http.ResponseWriter, status int, data any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func setRateHeaders(h http.Header, d ratelimit.Decision) {
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	reset := int(time.Until(d.Reset).Seconds())
	if reset < 0 {
		reset = 0
	}
	h.Set("X-RateLimit-Reset", strconv.Itoa(reset))
}

func firstValues(values url.Values) map[string]string {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]string, len(values))
	for k, vv := range values {
		if len(vv) > 0 {
			out[k] = vv[0]
		}
	}
	return out
}

func firstHeaderValues(header http.Header) map[string]string {
	if len(header) == 0 {
		return nil
	}
	out := make(map[string]string, len(header))
	for k, vv := range header {
		if len(vv) > 0 {
			out[k] = vv[0]
		}
	}
	return out
}
