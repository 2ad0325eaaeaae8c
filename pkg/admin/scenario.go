// Handlers for scenario counters.

package admin

import (
	"errors"
	"net/http"

	"github.com/mockbird/mockbird/pkg/httputil"
	"github.com/mockbird/mockbird/pkg/store"
)

func (a *API) handleResetScenario(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := a.deps.Store.Get(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "endpoint not found")
			return
		}
		httputil.WriteEnvelopeError(w, http.StatusInternalServerError, "get_error", err.Error())
		return
	}

	a.deps.Counters.Reset(id)
	httputil.WriteMessage(w, http.StatusOK, "scenario counter reset")
}

func (a *API) handleResetAllScenarios(w http.ResponseWriter, r *http.Request) {
	a.deps.Counters.ResetAll()
	a.log.Info("all scenario counters reset")
	httputil.WriteMessage(w, http.StatusOK, "all scenario counters reset")
}

func (a *API) handleScenarioCounters(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, a.deps.Counters.Snapshot())
}
