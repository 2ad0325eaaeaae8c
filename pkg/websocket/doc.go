// Package websocket serves mock WebSocket endpoints under the /ws
// prefix.
//
// Endpoints are URL paths with ordered message patterns: each incoming
// frame is matched against the patterns (exact, contains, regex, or
// json-path) and the first hit answers, either to the sender or as a
// broadcast to every connection on the endpoint. Endpoints can greet
// new connections, announce disconnects, and push scheduled messages on
// an interval.
//
// The Manager owns both registries (endpoints and live connections),
// the message log, and the maintenance loops: a ping cycle that
// terminates connections that stopped answering, and a sweep that drops
// sessions idle for too long.
package websocket
