// Route registration for the admin API.

package admin

import (
	"net/http"

	"github.com/mockbird/mockbird/pkg/config"
	"github.com/mockbird/mockbird/pkg/httputil"
)

// registerRoutes sets up all admin routes. Viewer tokens reach the GET
// surface, editor tokens mutate mock state, and server-level settings
// stay admin-only.
func (a *API) registerRoutes(mux *http.ServeMux) {
	editor := func(h http.HandlerFunc) http.HandlerFunc { return a.requireRole(config.RoleEditor, h) }
	admin := func(h http.HandlerFunc) http.HandlerFunc { return a.requireRole(config.RoleAdmin, h) }

	// Health
	mux.HandleFunc("GET /api/admin/health", a.handleHealth)

	// Endpoint management
	mux.HandleFunc("GET /api/admin/endpoints", a.handleListEndpoints)
	mux.HandleFunc("POST /api/admin/endpoints", editor(a.handleCreateEndpoint))
	mux.HandleFunc("GET /api/admin/endpoints/{id}", a.handleGetEndpoint)
	mux.HandleFunc("PUT /api/admin/endpoints/{id}", editor(a.handleUpdateEndpoint))
	mux.HandleFunc("DELETE /api/admin/endpoints/{id}", editor(a.handleDeleteEndpoint))

	// Request logs
	mux.HandleFunc("GET /api/admin/logs", a.handleListLogs)
	mux.HandleFunc("GET /api/admin/logs/stats", a.handleLogStats)
	mux.HandleFunc("DELETE /api/admin/logs", editor(a.handleClearLogs))

	// Endpoint history and restore
	mux.HandleFunc("GET /api/admin/endpoints/{id}/history", a.handleEndpointHistory)
	mux.HandleFunc("GET /api/admin/history", a.handleAllHistory)
	mux.HandleFunc("POST /api/admin/history/{id}/restore", editor(a.handleRestoreHistory))

	// Scenario counters
	mux.HandleFunc("POST /api/admin/endpoints/{id}/scenario/reset", editor(a.handleResetScenario))
	mux.HandleFunc("POST /api/admin/scenario/reset-all", editor(a.handleResetAllScenarios))
	mux.HandleFunc("GET /api/admin/scenario/counters", a.handleScenarioCounters)

	// Global auth settings
	mux.HandleFunc("GET /api/admin/auth/settings", a.handleGetAuthSettings)
	mux.HandleFunc("PUT /api/admin/auth/settings", admin(a.handlePutAuthSettings))
	mux.HandleFunc("DELETE /api/admin/auth/settings", admin(a.handleDeleteAuthSettings))

	// Rate limiting
	mux.HandleFunc("POST /api/admin/endpoints/{id}/ratelimit/reset", editor(a.handleResetRateLimit))
	mux.HandleFunc("POST /api/admin/ratelimit/reset-all", editor(a.handleResetAllRateLimits))
	mux.HandleFunc("GET /api/admin/ratelimit/stats", a.handleRateLimitStats)

	// Proxy response cache
	mux.HandleFunc("GET /api/admin/proxy/cache", a.handleProxyCacheInfo)
	mux.HandleFunc("DELETE /api/admin/proxy/cache", editor(a.handleClearProxyCache))

	// Environments
	mux.HandleFunc("GET /api/admin/environment/settings", a.handleGetEnvironmentSettings)
	mux.HandleFunc("PUT /api/admin/environment/settings", admin(a.handlePutEnvironmentSettings))
	mux.HandleFunc("DELETE /api/admin/environment/settings", admin(a.handleResetEnvironmentSettings))
	mux.HandleFunc("GET /api/admin/environments", a.handleListEnvironments)
	mux.HandleFunc("POST /api/admin/environments", admin(a.handleAddEnvironment))
	mux.HandleFunc("PUT /api/admin/environments/{name}", admin(a.handleUpdateEnvironment))
	mux.HandleFunc("DELETE /api/admin/environments/{name}", admin(a.handleRemoveEnvironment))

	// WebSocket endpoints, connections, and logs
	mux.HandleFunc("GET /api/admin/websocket/endpoints", a.handleListWSEndpoints)
	mux.HandleFunc("POST /api/admin/websocket/endpoints", editor(a.handleCreateWSEndpoint))
	mux.HandleFunc("GET /api/admin/websocket/endpoints/{id}", a.handleGetWSEndpoint)
	mux.HandleFunc("PUT /api/admin/websocket/endpoints/{id}", editor(a.handleUpdateWSEndpoint))
	mux.HandleFunc("DELETE /api/admin/websocket/endpoints/{id}", editor(a.handleDeleteWSEndpoint))
	mux.HandleFunc("POST /api/admin/websocket/endpoints/{id}/broadcast", editor(a.handleWSBroadcast))
	mux.HandleFunc("GET /api/admin/websocket/connections", a.handleListWSConnections)
	mux.HandleFunc("DELETE /api/admin/websocket/connections/{id}", editor(a.handleCloseWSConnection))
	mux.HandleFunc("POST /api/admin/websocket/connections/{id}/send", editor(a.handleWSSend))
	mux.HandleFunc("GET /api/admin/websocket/logs", a.handleListWSLogs)
	mux.HandleFunc("DELETE /api/admin/websocket/logs", editor(a.handleClearWSLogs))
	mux.HandleFunc("GET /api/admin/websocket/stats", a.handleWSStats)

	// GraphQL endpoints, resolvers, and logs
	mux.HandleFunc("GET /api/admin/graphql/endpoints", a.handleListGraphQLEndpoints)
	mux.HandleFunc("POST /api/admin/graphql/endpoints", editor(a.handleCreateGraphQLEndpoint))
	mux.HandleFunc("GET /api/admin/graphql/endpoints/{id}", a.handleGetGraphQLEndpoint)
	mux.HandleFunc("PUT /api/admin/graphql/endpoints/{id}", editor(a.handleUpdateGraphQLEndpoint))
	mux.HandleFunc("DELETE /api/admin/graphql/endpoints/{id}", editor(a.handleDeleteGraphQLEndpoint))
	mux.HandleFunc("POST /api/admin/graphql/endpoints/{id}/resolvers", editor(a.handleAddResolver))
	mux.HandleFunc("PUT /api/admin/graphql/endpoints/{id}/resolvers/{name}", editor(a.handleUpdateResolver))
	mux.HandleFunc("DELETE /api/admin/graphql/endpoints/{id}/resolvers/{name}", editor(a.handleDeleteResolver))
	mux.HandleFunc("GET /api/admin/graphql/logs", a.handleListGraphQLLogs)
	mux.HandleFunc("DELETE /api/admin/graphql/logs", editor(a.handleClearGraphQLLogs))

	// Unknown admin routes get an envelope 404 instead of the default
	// plain-text one.
	mux.HandleFunc("/api/admin/", a.handleNotFound)
}

func (a *API) handleNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "unknown admin route: "+r.URL.Path)
}
