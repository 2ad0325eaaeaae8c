// Handlers for the server-wide mock auth settings.

package admin

import (
	"net/http"

	"github.com/mockbird/mockbird/pkg/endpoint"
	"github.com/mockbird/mockbird/pkg/httputil"
)

func (a *API) handleGetAuthSettings(w http.ResponseWriter, r *http.Request) {
	cfg := a.deps.AuthSettings.Get()
	if cfg == nil {
		cfg = &endpoint.AuthConfig{}
	}
	httputil.WriteData(w, http.StatusOK, cfg)
}

func (a *API) handlePutAuthSettings(w http.ResponseWriter, r *http.Request) {
	var cfg endpoint.AuthConfig
	if err := decodeJSON(r, w, &cfg); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_json", "failed to parse request body: "+err.Error())
		return
	}

	if err := a.deps.AuthSettings.Set(&cfg); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	a.log.Info("global auth settings updated", "method", cfg.Method, "enabled", cfg.Enabled)
	httputil.WriteData(w, http.StatusOK, a.deps.AuthSettings.Get())
}

func (a *API) handleDeleteAuthSettings(w http.ResponseWriter, r *http.Request) {
	a.deps.AuthSettings.Clear()
	a.log.Info("global auth settings cleared")
	httputil.WriteMessage(w, http.StatusOK, "auth settings cleared")
}
