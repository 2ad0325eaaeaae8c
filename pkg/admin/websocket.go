// Handlers for WebSocket endpoints, live connections, and message logs.

package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mockbird/mockbird/pkg/endpoint"
	"github.com/mockbird/mockbird/pkg/httputil"
	"github.com/mockbird/mockbird/pkg/requestlog"
	"github.com/mockbird/mockbird/pkg/websocket"
)

func (a *API) handleListWSEndpoints(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, a.deps.WebSockets.ListEndpoints())
}

func (a *API) handleGetWSEndpoint(w http.ResponseWriter, r *http.Request) {
	ep, err := a.deps.WebSockets.GetEndpoint(r.PathValue("id"))
	if err != nil {
		httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "websocket endpoint not found")
		return
	}
	httputil.WriteData(w, http.StatusOK, ep)
}

func (a *API) handleCreateWSEndpoint(w http.ResponseWriter, r *http.Request) {
	var ep endpoint.WebSocketEndpoint
	if err := decodeJSON(r, w, &ep); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_json", "failed to parse request body: "+err.Error())
		return
	}

	created, err := a.deps.WebSockets.CreateEndpoint(&ep)
	if err != nil {
		switch {
		case errors.Is(err, websocket.ErrEndpointExists), errors.Is(err, websocket.ErrPathTaken):
			httputil.WriteEnvelopeError(w, http.StatusConflict, "conflict", err.Error())
		default:
			httputil.WriteEnvelopeError(w, http.StatusBadRequest, "validation_error", err.Error())
		}
		return
	}

	a.log.Info("websocket endpoint created", "id", created.ID, "path", created.Path)
	httputil.WriteData(w, http.StatusCreated, created)
}

func (a *API) handleUpdateWSEndpoint(w http.ResponseWriter, r *http.Request) {
	var ep endpoint.WebSocketEndpoint
	if err := decodeJSON(r, w, &ep); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_json", "failed to parse request body: "+err.Error())
		return
	}

	updated, err := a.deps.WebSockets.UpdateEndpoint(r.PathValue("id"), &ep)
	if err != nil {
		switch {
		case errors.Is(err, websocket.ErrEndpointNotFound):
			httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "websocket endpoint not found")
		case errors.Is(err, websocket.ErrPathTaken):
			httputil.WriteEnvelopeError(w, http.StatusConflict, "conflict", err.Error())
		default:
			httputil.WriteEnvelopeError(w, http.StatusBadRequest, "validation_error", err.Error())
		}
		return
	}

	httputil.WriteData(w, http.StatusOK, updated)
}

func (a *API) handleDeleteWSEndpoint(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.deps.WebSockets.DeleteEndpoint(id); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "websocket endpoint not found")
		return
	}

	a.log.Info("websocket endpoint deleted", "id", id)
	httputil.WriteMessage(w, http.StatusOK, "websocket endpoint deleted")
}

func (a *API) handleListWSConnections(w http.ResponseWriter, r *http.Request) {
	conns := a.deps.WebSockets.Connections(r.URL.Query().Get("endpointId"))
	httputil.WriteData(w, http.StatusOK, conns)
}

func (a *API) handleCloseWSConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := a.deps.WebSockets.CloseConnection(id, websocket.CloseNormalClosure, "closed by admin")
	if err != nil {
		httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "connection not found")
		return
	}

	a.log.Info("websocket connection closed", "id", id)
	httputil.WriteMessage(w, http.StatusOK, "connection closed")
}

func (a *API) handleWSSend(w http.ResponseWriter, r *http.Request) {
	var resp endpoint.WSResponse
	if err := decodeJSON(r, w, &resp); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_json", "failed to parse request body: "+err.Error())
		return
	}

	err := a.deps.WebSockets.SendToConnection(r.PathValue("id"), &resp)
	if err != nil {
		switch {
		case errors.Is(err, websocket.ErrConnectionNotFound):
			httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "connection not found")
		case errors.Is(err, websocket.ErrConnectionClosed):
			httputil.WriteEnvelopeError(w, http.StatusConflict, "connection_closed", "connection is already closed")
		default:
			httputil.WriteEnvelopeError(w, http.StatusInternalServerError, "send_error", err.Error())
		}
		return
	}

	httputil.WriteMessage(w, http.StatusOK, "message sent")
}

func (a *API) handleWSBroadcast(w http.ResponseWriter, r *http.Request) {
	var resp endpoint.WSResponse
	if err := decodeJSON(r, w, &resp); err != nil {
		httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_json", "failed to parse request body: "+err.Error())
		return
	}

	sent, err := a.deps.WebSockets.Broadcast(r.PathValue("id"), &resp)
	if err != nil {
		httputil.WriteEnvelopeError(w, http.StatusNotFound, "not_found", "websocket endpoint not found")
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]int{"sent": sent})
}

func (a *API) handleListWSLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &requestlog.MessageFilter{
		EndpointID:   q.Get("endpointId"),
		ConnectionID: q.Get("connectionId"),
		Direction:    requestlog.MessageDirection(q.Get("direction")),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httputil.WriteEnvelopeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative number")
			return
		}
		filter.Limit = limit
	}

	httputil.WriteData(w, http.StatusOK, a.deps.WebSockets.Log().List(filter))
}

func (a *API) handleClearWSLogs(w http.ResponseWriter, r *http.Request) {
	a.deps.WebSockets.Log().Clear()
	httputil.WriteMessage(w, http.StatusOK, "websocket logs cleared")
}

func (a *API) handleWSStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, a.deps.WebSockets.Stats())
}
