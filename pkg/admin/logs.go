// Handlers for the request log.

package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mockbird/mockbird/pkg/httputil"
	"github.com/mockbird/mockbird/pkg/requestlog"
)

// logFilterFromQuery builds a log filter from query parameters.
// Unknown parameters are ignored; malformed numeric ones error.
func logFilterFromQuery(r *http.Request) (*requestlog.Filter, error) {
	q := r.URL.Query()
	f := &requestlog.Filter{
		EndpointID: q.Get("endpointId"),
		Method:     q.Get("method"),
		Path:       q.Get("path"),
	}

	if raw := q.Get("status"); raw != "" {
		status, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errBadQuery{"status", "must be a number"}
		}
		f.Status = status
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return nil, errBadQuery{"limit", "must be a non-negative number"}
		}
		f.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return nil, errBadQuery{"offset", "must be a non-negative number"}
		}
		f.Offset = offset
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, errBadQuery{"since", "must be an RFC 3339 timestamp"}
		}
		f.Since = since
	}
	if raw := q.Get("until"); raw != "" {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, errBadQuery{"until", "must be an RFC 3339 timestamp"}
		}
		f.Until = until
	}

	return f, nil
}

type errBadQuery struct {
	param  string
	reason string
}

func (e errBadQuery) Error() string {
	return e.param + " " + e.reason
}

func (a *API) handleListLogs(w http.ResponseWriter, r *http.Request) {
	filter, err := logFilterFromQuery(r)
	if err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		return
	}
	httputil.WriteData(w, http.StatusOK, a.deps.Logs.List(filter))
}

func (a *API) handleLogStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, a.deps.Logs.Stats())
}

func (a *API) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	a.deps.Logs.Clear()
	a.log.Info("request logs cleared")
	httputil.WriteMessage(w, http.StatusOK, "logs cleared")
}
