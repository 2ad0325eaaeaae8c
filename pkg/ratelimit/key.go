package ratelimit

import (
	"net"
	"net/http"

	"github.com/mockbird/mockbird/pkg/endpoint"
	"github.com/mockbird/mockbird/pkg/httputil"
)

// NoKey is the client key used when the configured header or query
// parameter is absent from the request. All such requests share one
// window.
const NoKey = "no-key"

// UnknownKey is the client key used when the key strategy itself is
// unrecognized or the client IP cannot be determined.
const UnknownKey = "unknown"

// ClientKey derives the rate-limit key for a request according to the
// endpoint's key strategy. An empty strategy defaults to the client IP.
func ClientKey(r *http.Request, cfg *endpoint.RateLimitConfig) string {
	if cfg == nil {
		return UnknownKey
	}
	switch cfg.KeyBy {
	case endpoint.KeyByIP, "":
		if ip := httputil.ClientIP(r); net.ParseIP(ip) != nil {
			return ip
		}
		return UnknownKey
	case endpoint.KeyByHeader:
		if v := r.Header.Get(cfg.KeyName); v != "" {
			return v
		}
		return NoKey
	case endpoint.KeyByQuery:
		if v := r.URL.Query().Get(cfg.KeyName); v != "" {
			return v
		}
		return NoKey
	default:
		return UnknownKey
	}
}

// Check resolves the client key and runs the request through the
// limiter using the endpoint's configured budget.
func (l *Limiter) Check(r *http.Request, endpointID string, cfg *endpoint.RateLimitConfig) Decision {
	key := ClientKey(r, cfg)
	return l.Allow(endpointID, key, cfg.RequestsPerWindow, cfg.BurstLimit, cfg.WindowDuration())
}
