// Package metrics exposes Prometheus instrumentation for the mock
// server: a request counter and latency histogram fed by the engine,
// plus endpoint and connection gauges read from their registries at
// scrape time.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Protocol label values.
const (
	ProtocolHTTP      = "http"
	ProtocolWebSocket = "websocket"
	ProtocolGraphQL   = "graphql"
	ProtocolAdmin     = "admin"
)

// DefaultBuckets cover the latency range of mock responses, including
// injected delays.
var DefaultBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// Source provides the live values behind the gauges. Nil funcs read
// as zero.
type Source struct {
	HTTPEndpoints        func() int
	WebSocketEndpoints   func() int
	GraphQLEndpoints     func() int
	WebSocketConnections func() int
}

// Metrics holds the server's collectors on a private registry, so two
// servers in one process never collide.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New builds and registers the collector set.
func New(src Source) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mockbird_requests_total",
			Help: "Total number of requests served, labeled by protocol, method, and status.",
		}, []string{"protocol", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mockbird_request_duration_seconds",
			Help:    "Request latency in seconds, including injected delays.",
			Buckets: DefaultBuckets,
		}, []string{"protocol"}),
	}
	m.registry.MustRegister(m.requests, m.duration)
	m.registry.MustRegister(collectors.NewGoCollector())

	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "mockbird_websocket_connections",
		Help: "Open WebSocket connections.",
	}, pull(src.WebSocketConnections)))

	// One gauge per endpoint type, distinguished by a const label so
	// they share the mockbird_endpoints family.
	for _, g := range []struct {
		typ string
		fn  func() int
	}{
		{"http", src.HTTPEndpoints},
		{"websocket", src.WebSocketEndpoints},
		{"graphql", src.GraphQLEndpoints},
	} {
		m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "mockbird_endpoints",
			Help:        "Registered endpoints by type.",
			ConstLabels: prometheus.Labels{"type": g.typ},
		}, pull(g.fn)))
	}

	return m
}

func pull(fn func() int) func() float64 {
	return func() float64 {
		if fn == nil {
			return 0
		}
		return float64(fn())
	}
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(protocol, method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(protocol, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(protocol).Observe(elapsed.Seconds())
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
