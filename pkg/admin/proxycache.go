// Handlers for the proxy response cache.

package admin

import (
	"net/http"

	"github.com/mockbird/mockbird/pkg/httputil"
)

func (a *API) handleProxyCacheInfo(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, map[string]int{"entries": a.deps.ProxyCache.Len()})
}

func (a *API) handleClearProxyCache(w http.ResponseWriter, r *http.Request) {
	removed := a.deps.ProxyCache.Clear()
	a.log.Info("proxy cache cleared", "removed", removed)
	httputil.WriteData(w, http.StatusOK, map[string]int{"removed": removed})
}
