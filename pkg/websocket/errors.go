package websocket

import "errors"

var (
	// ErrConnectionClosed indicates the connection is closed.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrConnectionNotFound indicates no live connection has the ID.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrEndpointNotFound indicates no endpoint has the given ID.
	ErrEndpointNotFound = errors.New("websocket endpoint not found")

	// ErrEndpointExists indicates the endpoint ID is already registered.
	ErrEndpointExists = errors.New("websocket endpoint already exists")

	// ErrPathRequired indicates the endpoint has no path.
	ErrPathRequired = errors.New("websocket endpoint path is required")

	// ErrPathTaken indicates another endpoint already serves the path.
	ErrPathTaken = errors.New("websocket endpoint path already in use")
)
