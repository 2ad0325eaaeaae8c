package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mockbird/mockbird/internal/id"
	"github.com/mockbird/mockbird/pkg/endpoint"
	"github.com/mockbird/mockbird/pkg/logging"
	"github.com/mockbird/mockbird/pkg/requestlog"
)

const (
	// keepaliveInterval is the ping cycle period. A connection that has
	// not ponged by the next cycle is terminated.
	keepaliveInterval = 30 * time.Second

	// idleTimeout drops sessions without traffic from the active view.
	idleTimeout = 5 * time.Minute

	// sweepInterval is how often idle sessions are checked.
	sweepInterval = time.Minute
)

// Stats summarises WebSocket activity for the admin stats endpoint.
type Stats struct {
	ActiveConnections     int            `json:"activeConnections"`
	Endpoints             int            `json:"endpoints"`
	MessagesSent          int64          `json:"messagesSent"`
	MessagesReceived      int64          `json:"messagesReceived"`
	ConnectionsByEndpoint map[string]int `json:"connectionsByEndpoint,omitempty"`
}

// Manager owns the WebSocket endpoint registry, all live connections,
// the message log, the scheduled-message timers, and the keepalive and
// idle-sweep loops.
type Manager struct {
	mu         sync.RWMutex
	endpoints  map[string]*endpoint.WebSocketEndpoint
	order      []string
	byPath     map[string]string
	conns      map[string]*Connection
	byEndpoint map[string]map[string]*Connection
	timers     map[string][]*scheduledTimer

	// Totals carried over from connections that have closed; live
	// connections contribute their own counters.
	closedSent atomic.Int64
	closedRecv atomic.Int64

	log    *requestlog.MessageLog
	logger *slog.Logger
	now    func() time.Time

	keepalive  time.Duration
	idleMax    time.Duration
	sweepEvery time.Duration

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
}

type scheduledTimer struct {
	stopCh chan struct{}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = log }
}

// WithKeepaliveInterval overrides the ping cycle period.
func WithKeepaliveInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.keepalive = d
		}
	}
}

// WithIdleTimeout overrides the idle threshold and check period.
func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.idleMax = d
			if d < m.sweepEvery {
				m.sweepEvery = d
			}
		}
	}
}

// NewManager creates a Manager and starts its maintenance loops. Close
// must be called to stop them.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		endpoints:  make(map[string]*endpoint.WebSocketEndpoint),
		byPath:     make(map[string]string),
		conns:      make(map[string]*Connection),
		byEndpoint: make(map[string]map[string]*Connection),
		timers:     make(map[string][]*scheduledTimer),
		log:        requestlog.NewMessageLog(requestlog.DefaultCapacity),
		logger:     logging.Nop(),
		now:        time.Now,
		keepalive:  keepaliveInterval,
		idleMax:    idleTimeout,
		sweepEvery: sweepInterval,
		stopCh:     make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.maintenanceLoop()
	return m
}

// Log returns the manager's message log.
func (m *Manager) Log() *requestlog.MessageLog {
	return m.log
}

// CreateEndpoint registers a WebSocket endpoint and starts its
// scheduled-message timers. An ID is assigned when the endpoint does
// not carry one.
func (m *Manager) CreateEndpoint(ep *endpoint.WebSocketEndpoint) (*endpoint.WebSocketEndpoint, error) {
	if ep == nil || ep.Path == "" {
		return nil, ErrPathRequired
	}

	stored := ep.Clone()
	stored.Normalize()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byPath[stored.Path]; exists {
		return nil, ErrPathTaken
	}
	if stored.ID == "" {
		stored.ID = id.New("ws")
	} else if _, exists := m.endpoints[stored.ID]; exists {
		return nil, ErrEndpointExists
	}

	ts := m.now()
	stored.CreatedAt = ts
	stored.UpdatedAt = ts

	m.endpoints[stored.ID] = stored
	m.order = append(m.order, stored.ID)
	m.byPath[stored.Path] = stored.ID
	m.startTimersLocked(stored)
	return stored.Clone(), nil
}

// GetEndpoint returns the endpoint with the given ID.
func (m *Manager) GetEndpoint(endpointID string) (*endpoint.WebSocketEndpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ep, ok := m.endpoints[endpointID]
	if !ok {
		return nil, ErrEndpointNotFound
	}
	return ep.Clone(), nil
}

// ListEndpoints returns all endpoints in registration order.
func (m *Manager) ListEndpoints() []*endpoint.WebSocketEndpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*endpoint.WebSocketEndpoint, 0, len(m.order))
	for _, endpointID := range m.order {
		result = append(result, m.endpoints[endpointID].Clone())
	}
	return result
}

// UpdateEndpoint replaces the endpoint with the given ID, preserving
// its identity and creation time. Its scheduled-message timers are
// replaced; live connections keep running and pick up the new patterns
// on their next frame.
func (m *Manager) UpdateEndpoint(endpointID string, ep *endpoint.WebSocketEndpoint) (*endpoint.WebSocketEndpoint, error) {
	if ep == nil || ep.Path == "" {
		return nil, ErrPathRequired
	}

	stored := ep.Clone()
	stored.Normalize()

	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.endpoints[endpointID]
	if !ok {
		return nil, ErrEndpointNotFound
	}
	if otherID, exists := m.byPath[stored.Path]; exists && otherID != endpointID {
		return nil, ErrPathTaken
	}

	stored.ID = endpointID
	stored.CreatedAt = current.CreatedAt
	stored.UpdatedAt = m.now()

	delete(m.byPath, current.Path)
	m.endpoints[endpointID] = stored
	m.byPath[stored.Path] = endpointID

	m.stopTimersLocked(endpointID)
	m.startTimersLocked(stored)
	return stored.Clone(), nil
}

// DeleteEndpoint removes the endpoint, stops its timers, and closes its
// connections with a normal closure.
func (m *Manager) DeleteEndpoint(endpointID string) error {
	m.mu.Lock()
	ep, ok := m.endpoints[endpointID]
	if !ok {
		m.mu.Unlock()
		return ErrEndpointNotFound
	}

	delete(m.endpoints, endpointID)
	delete(m.byPath, ep.Path)
	for i, oid := range m.order {
		if oid == endpointID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	m.stopTimersLocked(endpointID)

	conns := make([]*Connection, 0, len(m.byEndpoint[endpointID]))
	for _, c := range m.byEndpoint[endpointID] {
		conns = append(conns, c)
	}
	m.mu.Unlock()

	for _, c := range conns {
		m.closeAndRemove(c, CloseNormalClosure, "endpoint deleted")
	}
	return nil
}

// EndpointByPath returns the endpoint serving the given path.
func (m *Manager) EndpointByPath(path string) (*endpoint.WebSocketEndpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	endpointID, ok := m.byPath[path]
	if !ok {
		return nil, false
	}
	return m.endpoints[endpointID].Clone(), true
}

// ReplaceAll swaps the endpoint registry, assigning IDs where missing.
// Endpoints without a path, or whose path or ID duplicates an earlier
// entry, are skipped. Used when loading collection files at startup.
func (m *Manager) ReplaceAll(eps []*endpoint.WebSocketEndpoint) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	for endpointID := range m.timers {
		m.stopTimersLocked(endpointID)
	}
	m.endpoints = make(map[string]*endpoint.WebSocketEndpoint, len(eps))
	m.byPath = make(map[string]string, len(eps))
	m.order = m.order[:0]

	ts := m.now()
	for _, ep := range eps {
		if ep == nil || ep.Path == "" {
			continue
		}
		stored := ep.Clone()
		stored.Normalize()
		if stored.ID == "" {
			stored.ID = id.New("ws")
		}
		if _, exists := m.endpoints[stored.ID]; exists {
			continue
		}
		if _, exists := m.byPath[stored.Path]; exists {
			continue
		}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = ts
		}
		if stored.UpdatedAt.IsZero() {
			stored.UpdatedAt = ts
		}
		m.endpoints[stored.ID] = stored
		m.order = append(m.order, stored.ID)
		m.byPath[stored.Path] = stored.ID
		m.startTimersLocked(stored)
	}
	return len(m.order)
}

// CountEndpoints returns the number of registered endpoints.
func (m *Manager) CountEndpoints() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.endpoints)
}

// register adds a live connection to the manager.
func (m *Manager) register(c *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conns[c.id] = c
	set := m.byEndpoint[c.endpointID]
	if set == nil {
		set = make(map[string]*Connection)
		m.byEndpoint[c.endpointID] = set
	}
	set[c.id] = c
}

// remove drops a connection from the registry, keeping its message
// totals. Safe to call more than once.
func (m *Manager) remove(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conns[connID]
	if !ok {
		return
	}

	m.closedSent.Add(c.messagesSent.Load())
	m.closedRecv.Add(c.messagesRecv.Load())

	delete(m.conns, connID)
	if set, ok := m.byEndpoint[c.endpointID]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(m.byEndpoint, c.endpointID)
		}
	}
}

// Connections returns the admin view of live connections, optionally
// narrowed to one endpoint, oldest first.
func (m *Manager) Connections(endpointID string) []*ConnectionInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]*ConnectionInfo, 0, len(m.conns))
	for _, c := range m.conns {
		if endpointID != "" && c.endpointID != endpointID {
			continue
		}
		infos = append(infos, c.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].ConnectedAt.Equal(infos[j].ConnectedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].ConnectedAt.Before(infos[j].ConnectedAt)
	})
	return infos
}

// CloseConnection closes one connection by ID.
func (m *Manager) CloseConnection(connID string, code CloseCode, reason string) error {
	m.mu.RLock()
	c, ok := m.conns[connID]
	m.mu.RUnlock()
	if !ok {
		return ErrConnectionNotFound
	}

	m.closeAndRemove(c, code, reason)
	return nil
}

// SendToConnection delivers a response payload to one connection.
func (m *Manager) SendToConnection(connID string, resp *endpoint.WSResponse) error {
	m.mu.RLock()
	c, ok := m.conns[connID]
	m.mu.RUnlock()
	if !ok {
		return ErrConnectionNotFound
	}

	payload, err := EncodePayload(resp.Data)
	if err != nil {
		return err
	}
	if err := c.Send(payload); err != nil {
		return err
	}
	m.logOutgoing(c, payload)
	return nil
}

// Broadcast delivers a response payload to every open connection on the
// endpoint, returning the delivery count.
func (m *Manager) Broadcast(endpointID string, resp *endpoint.WSResponse) (int, error) {
	m.mu.RLock()
	_, known := m.endpoints[endpointID]
	m.mu.RUnlock()
	if !known {
		return 0, ErrEndpointNotFound
	}
	return m.broadcast(endpointID, resp), nil
}

func (m *Manager) broadcast(endpointID string, resp *endpoint.WSResponse) int {
	payload, err := EncodePayload(resp.Data)
	if err != nil {
		m.logger.Warn("failed to encode broadcast payload", "endpointId", endpointID, "error", err)
		return 0
	}

	sent := 0
	for _, c := range m.connectionsFor(endpointID) {
		if c.IsClosed() {
			continue
		}
		if err := c.Send(payload); err != nil {
			continue
		}
		m.logOutgoing(c, payload)
		sent++
	}
	return sent
}

// Stats reports connection and traffic totals.
func (m *Manager) Stats() *Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := &Stats{
		ActiveConnections:     len(m.conns),
		Endpoints:             len(m.endpoints),
		MessagesSent:          m.closedSent.Load(),
		MessagesReceived:      m.closedRecv.Load(),
		ConnectionsByEndpoint: make(map[string]int, len(m.byEndpoint)),
	}
	for _, c := range m.conns {
		s.MessagesSent += c.messagesSent.Load()
		s.MessagesReceived += c.messagesRecv.Load()
	}
	for endpointID, set := range m.byEndpoint {
		s.ConnectionsByEndpoint[endpointID] = len(set)
	}
	return s
}

// Close stops the maintenance loops and scheduled timers and closes
// every connection. Idempotent.
func (m *Manager) Close() error {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		for endpointID := range m.timers {
			m.stopTimersLocked(endpointID)
		}
		m.mu.Unlock()

		close(m.stopCh)
		<-m.stoppedCh

		for _, c := range m.snapshotConns() {
			m.closeAndRemove(c, CloseGoingAway, "server shutting down")
		}
	})
	return nil
}

func (m *Manager) maintenanceLoop() {
	defer close(m.stoppedCh)

	ping := time.NewTicker(m.keepalive)
	defer ping.Stop()
	sweep := time.NewTicker(m.sweepEvery)
	defer sweep.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ping.C:
			m.pingConnections()
		case <-sweep.C:
			m.dropIdleConnections()
		}
	}
}

// pingConnections terminates connections that never answered the
// previous ping, then pings the rest. The pong flips isAlive back
// before the next cycle.
func (m *Manager) pingConnections() {
	for _, c := range m.snapshotConns() {
		if c.IsClosed() {
			continue
		}
		if !c.isAlive.Load() {
			m.logger.Debug("terminating unresponsive websocket connection",
				"connectionId", c.ID(), "endpointId", c.EndpointID())
			m.closeAndRemove(c, CloseGoingAway, "keepalive timeout")
			continue
		}

		c.isAlive.Store(false)
		go func(c *Connection) {
			ctx, cancel := context.WithTimeout(c.ctx, m.keepalive)
			defer cancel()
			if err := c.Ping(ctx); err == nil {
				c.isAlive.Store(true)
			}
		}(c)
	}
}

// dropIdleConnections closes sessions without traffic past the idle
// threshold.
func (m *Manager) dropIdleConnections() {
	cutoff := m.now().Add(-m.idleMax)
	for _, c := range m.snapshotConns() {
		if c.LastMessageAt().Before(cutoff) {
			m.logger.Debug("dropping idle websocket connection",
				"connectionId", c.ID(), "endpointId", c.EndpointID())
			m.closeAndRemove(c, CloseGoingAway, "idle timeout")
		}
	}
}

func (m *Manager) closeAndRemove(c *Connection, code CloseCode, reason string) {
	_ = c.Close(code, reason)
	m.remove(c.id)
}

func (m *Manager) snapshotConns() []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := make([]*Connection, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	return conns
}

func (m *Manager) connectionsFor(endpointID string) []*Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conns := make([]*Connection, 0, len(m.byEndpoint[endpointID]))
	for _, c := range m.byEndpoint[endpointID] {
		conns = append(conns, c)
	}
	return conns
}

// startTimersLocked launches a ticker goroutine per enabled scheduled
// message. Callers hold mu.
func (m *Manager) startTimersLocked(ep *endpoint.WebSocketEndpoint) {
	for i := range ep.ScheduledMessages {
		sm := ep.ScheduledMessages[i]
		if !sm.IsEnabled() || sm.Interval <= 0 || sm.Response == nil {
			continue
		}
		t := &scheduledTimer{stopCh: make(chan struct{})}
		m.timers[ep.ID] = append(m.timers[ep.ID], t)
		go m.runScheduled(ep.ID, sm, t.stopCh)
	}
}

// stopTimersLocked stops every timer of an endpoint. Callers hold mu.
func (m *Manager) stopTimersLocked(endpointID string) {
	for _, t := range m.timers[endpointID] {
		close(t.stopCh)
	}
	delete(m.timers, endpointID)
}

func (m *Manager) runScheduled(endpointID string, sm endpoint.ScheduledMessage, stopCh chan struct{}) {
	ticker := time.NewTicker(time.Duration(sm.Interval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.broadcast(endpointID, sm.Response)
		}
	}
}

// EncodePayload turns response data into wire bytes: strings pass
// through raw, everything else is JSON-encoded.
func EncodePayload(data any) ([]byte, error) {
	if s, ok := data.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(data)
}

// classifyPayload reports the log message type: json when the payload
// parses as JSON (with the parsed value), text otherwise.
func classifyPayload(data []byte) (string, any) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err == nil {
		return "json", parsed
	}
	return "text", string(data)
}

func (m *Manager) logIncoming(c *Connection, data []byte) {
	messageType, message := classifyPayload(data)
	m.log.Log(&requestlog.MessageEntry{
		ConnectionID: c.id,
		EndpointID:   c.endpointID,
		Direction:    requestlog.DirectionIncoming,
		MessageType:  messageType,
		Message:      message,
	})
}

func (m *Manager) logOutgoing(c *Connection, data []byte) {
	messageType, message := classifyPayload(data)
	m.log.Log(&requestlog.MessageEntry{
		ConnectionID: c.id,
		EndpointID:   c.endpointID,
		Direction:    requestlog.DirectionOutgoing,
		MessageType:  messageType,
		Message:      message,
	})
}

func (m *Manager) logSystem(c *Connection, event string) {
	m.log.Log(&requestlog.MessageEntry{
		ConnectionID: c.id,
		EndpointID:   c.endpointID,
		Direction:    requestlog.DirectionSystem,
		MessageType:  "text",
		Message:      event,
	})
}
