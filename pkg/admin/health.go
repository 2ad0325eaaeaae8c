// Handler for the admin health check.

package admin

import (
	"net/http"

	"github.com/mockbird/mockbird/pkg/httputil"
)

// HealthResponse is the body of GET /api/admin/health.
type HealthResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Uptime    int          `json:"uptime"`
	Version   string       `json:"version"`
	Counts    HealthCounts `json:"counts"`
}

// HealthCounts summarizes how much state the server is holding.
type HealthCounts struct {
	Endpoints          int `json:"endpoints"`
	WebSocketEndpoints int `json:"websocketEndpoints"`
	GraphQLEndpoints   int `json:"graphqlEndpoints"`
	Logs               int `json:"logs"`
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := 0
	if a.deps.Uptime != nil {
		uptime = a.deps.Uptime()
	}

	httputil.WriteData(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: a.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Uptime:    uptime,
		Version:   a.deps.Version,
		Counts: HealthCounts{
			Endpoints:          a.deps.Store.Count(),
			WebSocketEndpoints: a.deps.WebSockets.CountEndpoints(),
			GraphQLEndpoints:   a.deps.GraphQL.Count(),
			Logs:               a.deps.Logs.Count(),
		},
	})
}
