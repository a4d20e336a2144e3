// Package server is the WebSocket transport for the room relay.
//
// A Hub goroutine owns the relay engine. Each Client runs a read pump that
// forwards frames to the hub and a write pump that drains its send queue.
// The rest of the package is configuration, origin checks, HTTP handlers,
// routing and Prometheus metrics.
package server
