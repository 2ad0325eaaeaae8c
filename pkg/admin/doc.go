// Package admin implements the management API served under /api/admin.
//
// Every response is wrapped in the envelope
//
//	{"success": bool, "data"?: ..., "error"?: code, "message"?: text}
//
// The API is constructed from the live service instances (store, logs,
// counters, limiters, registries) and mounted into the engine's mux; it
// runs no listener of its own. Middleware applies security headers,
// CORS, optional token authentication with roles, and a per-client
// token-bucket rate limit.
package admin
