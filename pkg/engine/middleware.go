package engine

import (
	"net/http"
	"strings"
	"time"

	"github.com/mockbird/mockbird/pkg/metrics"
)

// statusRecorder captures the status code written by the wrapped
// handler. Unwrap keeps http.ResponseController working for handlers
// that hijack the connection, such as WebSocket upgrades.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusRecorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// observeRequests records a count and latency sample for every request,
// labeled by the surface that served it. Scrapes of /metrics itself are
// not observed.
func (s *Server) observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protocol := s.protocolFor(r.URL.Path)
		if protocol == "" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.ObserveRequest(protocol, r.Method, status, time.Since(start))
	})
}

func (s *Server) protocolFor(path string) string {
	switch {
	case path == "/metrics":
		return ""
	case path == "/mock" || strings.HasPrefix(path, "/mock/"):
		return metrics.ProtocolHTTP
	case path == "/ws" || strings.HasPrefix(path, "/ws/"):
		return metrics.ProtocolWebSocket
	case strings.HasPrefix(path, "/api/admin"):
		return metrics.ProtocolAdmin
	}
	if _, ok := s.graphql.EndpointByPath(path); ok {
		return metrics.ProtocolGraphQL
	}
	return metrics.ProtocolHTTP
}
