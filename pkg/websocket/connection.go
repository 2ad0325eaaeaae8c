package websocket

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/coder/websocket"

	"github.com/mockbird/mockbird/internal/id"
	"github.com/mockbird/mockbird/pkg/httputil"
)

// CloseCode is a WebSocket close status code per RFC 6455.
type CloseCode int

const (
	// CloseNormalClosure indicates a normal closure (1000).
	CloseNormalClosure CloseCode = 1000
	// CloseGoingAway indicates the endpoint is going away (1001).
	CloseGoingAway CloseCode = 1001
	// CloseInternalError indicates an internal server error (1011).
	CloseInternalError CloseCode = 1011
)

// Connection is one live WebSocket session.
type Connection struct {
	id          string
	endpointID  string
	clientIP    string
	userAgent   string
	connectedAt time.Time

	conn          *ws.Conn
	lastMessageAt atomic.Value // time.Time
	messagesSent  atomic.Int64
	messagesRecv  atomic.Int64

	// isAlive is cleared when a ping goes out and set again by the pong;
	// the keepalive cycle terminates connections it finds cleared.
	isAlive atomic.Bool
	closed  atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc

	// sendMu coordinates Send and Ping with Close so a write never races
	// the underlying close.
	sendMu sync.RWMutex
}

// ConnectionInfo is the admin view of a connection.
type ConnectionInfo struct {
	ID            string    `json:"connectionId"`
	EndpointID    string    `json:"endpointId"`
	IsAlive       bool      `json:"isAlive"`
	ClientIP      string    `json:"clientIp"`
	UserAgent     string    `json:"userAgent,omitempty"`
	ConnectedAt   time.Time `json:"connectedAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}

// newConnection wraps an accepted websocket connection.
func newConnection(wsConn *ws.Conn, endpointID string, r *http.Request) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Connection{
		id:          id.New("conn"),
		endpointID:  endpointID,
		conn:        wsConn,
		connectedAt: time.Now(),
		ctx:         ctx,
		cancel:      cancel,
	}
	if r != nil {
		c.clientIP = httputil.ClientIP(r)
		c.userAgent = r.UserAgent()
	}
	c.isAlive.Store(true)
	c.lastMessageAt.Store(c.connectedAt)
	return c
}

// ID returns the unique connection ID.
func (c *Connection) ID() string {
	return c.id
}

// EndpointID returns the ID of the endpoint this connection belongs to.
func (c *Connection) EndpointID() string {
	return c.endpointID
}

// ConnectedAt returns the connection establishment time.
func (c *Connection) ConnectedAt() time.Time {
	return c.connectedAt
}

// LastMessageAt returns the time of the last sent or received message.
func (c *Connection) LastMessageAt() time.Time {
	if t, ok := c.lastMessageAt.Load().(time.Time); ok {
		return t
	}
	return c.connectedAt
}

// IsAlive reports whether the connection answered its last ping.
func (c *Connection) IsAlive() bool {
	return c.isAlive.Load()
}

// IsClosed reports whether the connection is closed.
func (c *Connection) IsClosed() bool {
	return c.closed.Load()
}

// Context is cancelled when the connection closes.
func (c *Connection) Context() context.Context {
	return c.ctx
}

// Send writes a text frame to the client.
func (c *Connection) Send(data []byte) error {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	if c.closed.Load() {
		return ErrConnectionClosed
	}
	if err := c.conn.Write(c.ctx, ws.MessageText, data); err != nil {
		return err
	}

	c.messagesSent.Add(1)
	c.lastMessageAt.Store(time.Now())
	return nil
}

// Read returns the next frame's payload. It blocks until a frame
// arrives, the connection closes, or the context is cancelled.
func (c *Connection) Read() ([]byte, error) {
	// No sendMu here: Read blocks on I/O and Close unblocks it by
	// cancelling the context.
	if c.closed.Load() {
		return nil, ErrConnectionClosed
	}
	_, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return nil, err
	}

	c.messagesRecv.Add(1)
	c.lastMessageAt.Store(time.Now())
	return data, nil
}

// Ping sends a ping frame and waits for the pong.
func (c *Connection) Ping(ctx context.Context) error {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	if c.closed.Load() {
		return ErrConnectionClosed
	}
	return c.conn.Ping(ctx)
}

// Close closes the connection with the given close code and reason.
// Closing an already closed connection returns ErrConnectionClosed.
func (c *Connection) Close(code CloseCode, reason string) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed.Swap(true) {
		return ErrConnectionClosed
	}
	c.cancel()
	return c.conn.Close(ws.StatusCode(code), reason)
}

// Info returns the admin view of this connection.
func (c *Connection) Info() *ConnectionInfo {
	return &ConnectionInfo{
		ID:            c.id,
		EndpointID:    c.endpointID,
		IsAlive:       c.isAlive.Load(),
		ClientIP:      c.clientIP,
		UserAgent:     c.userAgent,
		ConnectedAt:   c.connectedAt,
		LastMessageAt: c.LastMessageAt(),
	}
}
