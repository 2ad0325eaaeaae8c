// Handlers for per-endpoint rate limiter state.

package admin

import (
	"errors"
	"net/http"

	"github.com/mockbird/mockbird/pkg/httputil"
	"github.com/mockbird/mockbird/pkg/store"
)

func (a *API) handleResetRateLimit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := a.deps.Store.Get(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "endpoint not found")
			return
		}
		httputil.WriteEnvelopeError(w, http.StatusInternalServerError, "get_error", err.Error())
		return
	}

	a.deps.Limiter.Reset(id)
	httputil.WriteMessage(w, http.StatusOK, "rate limit reset")
}

func (a *API) handleResetAllRateLimits(w http.ResponseWriter, r *http.Request) {
	a.deps.Limiter.ResetAll()
	a.log.Info("all rate limiters reset")
	httputil.WriteMessage(w, http.StatusOK, "all rate limits reset")
}

func (a *API) handleRateLimitStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, a.deps.Limiter.Stats())
}
