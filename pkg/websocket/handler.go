package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	ws "github.com/coder/websocket"

	"github.com/mockbird/mockbird/pkg/endpoint"
)

// PathPrefix is stripped from request paths before endpoint lookup:
// a client connecting to /ws/chat reaches the endpoint at /chat.
const PathPrefix = "/ws"

// maxMessageSize caps incoming frame size.
const maxMessageSize = 1 << 20 // 1 MB

// Handler upgrades HTTP requests under the /ws prefix and runs the
// message loop for each connection.
type Handler struct {
	manager *Manager
}

var _ http.Handler = (*Handler)(nil)

// NewHandler creates a Handler serving the manager's endpoints.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// ServeHTTP resolves the endpoint and upgrades the connection. Unknown
// and inactive endpoints are rejected with a JSON 404 before any
// upgrade happens.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, PathPrefix)
	if path == "" {
		path = "/"
	}

	ep, ok := h.manager.EndpointByPath(path)
	if !ok || !ep.IsActive() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":   "Not Found",
			"message": "WebSocket endpoint not found: " + path,
		})
		return
	}

	wsConn, err := ws.Accept(w, r, &ws.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.manager.logger.Warn("websocket upgrade failed", "path", path, "error", err)
		return
	}
	wsConn.SetReadLimit(maxMessageSize)

	conn := newConnection(wsConn, ep.ID, r)
	h.manager.register(conn)
	h.manager.logSystem(conn, "connected")
	h.manager.logger.Info("websocket connection opened",
		"connectionId", conn.ID(), "endpointId", ep.ID, "clientIp", conn.clientIP)

	if ep.OnConnectMessage != nil {
		h.deliver(conn, ep.ID, ep.OnConnectMessage)
	}

	h.readLoop(conn)
}

// readLoop reads frames until the connection drops, then runs the
// disconnect sequence.
func (h *Handler) readLoop(conn *Connection) {
	defer func() {
		h.manager.logSystem(conn, "disconnected")
		h.manager.remove(conn.ID())
		_ = conn.Close(CloseNormalClosure, "")
		h.manager.logger.Info("websocket connection closed",
			"connectionId", conn.ID(), "endpointId", conn.EndpointID())

		// The endpoint may be gone by now; only survivors hear about
		// the departure.
		if ep, err := h.manager.GetEndpoint(conn.EndpointID()); err == nil && ep.OnDisconnectMessage != nil {
			h.manager.broadcast(ep.ID, ep.OnDisconnectMessage)
		}
	}()

	for {
		data, err := conn.Read()
		if err != nil {
			return
		}
		h.manager.logIncoming(conn, data)
		h.handleFrame(conn, data)
	}
}

// handleFrame matches an incoming frame against the endpoint's current
// patterns. The endpoint is re-fetched per frame so admin updates apply
// to live connections.
func (h *Handler) handleFrame(conn *Connection, data []byte) {
	ep, err := h.manager.GetEndpoint(conn.EndpointID())
	if err != nil || !ep.IsActive() {
		return
	}

	resp, matched := MatchResponse(ep.MessagePatterns, data)
	if !matched || resp == nil {
		return
	}
	h.deliver(conn, ep.ID, resp)
}

// deliver sends a response, honouring its delay and broadcast flag.
func (h *Handler) deliver(conn *Connection, endpointID string, resp *endpoint.WSResponse) {
	if resp.Delay > 0 {
		select {
		case <-conn.Context().Done():
			return
		case <-time.After(time.Duration(resp.Delay) * time.Millisecond):
		}
	}

	if resp.Broadcast {
		h.manager.broadcast(endpointID, resp)
		return
	}

	payload, err := EncodePayload(resp.Data)
	if err != nil {
		h.manager.logger.Warn("failed to encode response payload",
			"connectionId", conn.ID(), "error", err)
		return
	}
	if err := conn.Send(payload); err != nil {
		return
	}
	h.manager.logOutgoing(conn, payload)
}
