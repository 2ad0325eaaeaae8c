// Package engine is the composition root of the mock server. It
// constructs every service (store, request log, scenario counters,
// auth settings, rate limiter, proxy forwarder, environments, template
// engine, WebSocket manager, GraphQL engine, metrics, admin API), owns
// the HTTP listener, and routes traffic: /mock/ to the request
// pipeline, /ws/ to the WebSocket upgrader, /api/admin/ to the admin
// API, /metrics to Prometheus, and registered GraphQL paths to the
// GraphQL handler.
package engine
