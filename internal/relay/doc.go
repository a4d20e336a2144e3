// Package relay implements the room relay protocol: the session registry that
// maps connections to users, the room store that holds membership and message
// history, and the Engine that applies inbound requests to both and fans out
// the resulting frames.
//
// The package is transport agnostic. A connection is anything implementing
// Conn, and the Engine is not safe for concurrent use: callers must feed it
// from a single goroutine, which is what server.Hub does.
package relay
