// Handlers for endpoint change history.

package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mockbird/mockbird/pkg/httputil"
	"github.com/mockbird/mockbird/pkg/store"
)

func (a *API) handleEndpointHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := a.deps.Store.Get(id); err != nil {
		// Deleted endpoints still have history worth reading, so only
		// reject IDs with no trail at all.
		if len(a.deps.Store.History(id)) == 0 {
			httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "endpoint not found")
			return
		}
	}
	httputil.WriteData(w, http.StatusOK, a.deps.Store.History(id))
}

func (a *API) handleAllHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative number")
			return
		}
		limit = n
	}
	httputil.WriteData(w, http.StatusOK, a.deps.Store.AllHistory(limit))
}

func (a *API) handleRestoreHistory(w http.ResponseWriter, r *http.Request) {
	restored, err := a.deps.Store.Restore(r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrHistoryNotFound):
			httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "history entry not found")
		case errors.Is(err, store.ErrNoSnapshot):
			httputil.WriteEnvelopeError(w, http.StatusBadRequest, "no_snapshot", "history entry has no snapshot to restore")
		default:
			httputil.WriteEnvelopeError(w, http.StatusInternalServerError, "restore_error", err.Error())
		}
		return
	}

	a.log.Info("endpoint restored from history", "id", restored.ID)
	httputil.WriteData(w, http.StatusOK, restored)
}
