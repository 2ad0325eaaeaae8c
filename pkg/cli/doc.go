// Package cli implements the mockbird command line interface: the serve
// command running the server in the foreground, management commands
// speaking to the admin API of a running instance, and a small
// WebSocket test client.
package cli
