package graphql

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mockbird/mockbird/pkg/endpoint"
	"github.com/mockbird/mockbird/pkg/logging"
	"github.com/mockbird/mockbird/pkg/requestlog"
)

var _ http.Handler = (*Handler)(nil)

// MaxRequestBodySize is the maximum allowed request body size (1MB).
const MaxRequestBodySize = 1 << 20

// Handler serves GraphQL HTTP requests for every path registered on the
// engine. It supports POST with application/json or application/graphql
// bodies and GET with query parameters.
type Handler struct {
	engine *Engine
	log    *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the handler's logger.
func WithLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) { h.log = log }
}

// NewHandler creates an HTTP handler backed by the engine.
func NewHandler(engine *Engine, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine: engine,
		log:    logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP answers a GraphQL request on a registered endpoint path.
// Replies are HTTP 200 unless the request cannot be parsed or carries
// no query, which is a 400 with a GraphQL error envelope.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ep, ok := h.engine.EndpointByPath(r.URL.Path)
	if !ok || !ep.IsActive() {
		h.writeError(w, http.StatusNotFound, "GraphQL endpoint not found")
		return
	}

	// Preflight; CORS headers are the router's concern.
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req *Request
	var err error
	if r.Method == http.MethodGet {
		req, err = parseGetRequest(r)
	} else {
		req, err = parsePostRequest(r)
	}
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	exec := h.engine.Execute(r.Context(), ep, req)
	h.writeResponse(w, exec.Response)
	h.logOperation(ep.ID, req, exec, start)
}

// parseGetRequest reads a GraphQL request from URL query parameters.
// Variables arrive JSON-encoded in the variables parameter.
func parseGetRequest(r *http.Request) (*Request, error) {
	params := r.URL.Query()
	req := &Request{
		Query:         params.Get("query"),
		OperationName: params.Get("operationName"),
	}
	if raw := params.Get("variables"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
			return nil, errors.New("invalid variables JSON")
		}
	}
	return req, nil
}

// parsePostRequest reads a GraphQL request from the body. A body sent as
// application/graphql is the bare query document; anything else is
// decoded as the standard JSON request shape.
func parsePostRequest(r *http.Request) (*Request, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize))
	if err != nil {
		return nil, errors.New("failed to read request body")
	}
	defer func() { _ = r.Body.Close() }()

	if len(body) == 0 {
		return nil, errors.New("empty request body")
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/graphql") {
		return &Request{Query: string(body)}, nil
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, errors.New("invalid JSON request body")
	}
	return &req, nil
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&endpoint.GraphQLResponse{
		Errors: []endpoint.GraphQLError{{Message: message}},
	})
}

func (h *Handler) writeResponse(w http.ResponseWriter, resp *endpoint.GraphQLResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Warn("failed to write graphql response", "error", err)
	}
}

func (h *Handler) logOperation(endpointID string, req *Request, exec *Execution, start time.Time) {
	h.engine.Log().Log(&requestlog.OperationEntry{
		EndpointID:    endpointID,
		OperationType: string(exec.OperationType),
		OperationName: exec.OperationName,
		Query:         req.Query,
		Variables:     req.Variables,
		ResolverName:  exec.ResolverName,
		HadErrors:     len(exec.Response.Errors) > 0,
		ResponseTime:  int(time.Since(start).Milliseconds()),
	})

	h.log.Debug("graphql operation served",
		"endpointId", endpointID,
		"operation", exec.OperationName,
		"type", string(exec.OperationType),
		"resolver", exec.ResolverName)
}
