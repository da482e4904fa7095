// Package realtime – errors
//
// Sentinels returned by Hub and Handler. Frame handling errors are logged by
// the connection reader and never close the connection.
package realtime

import "errors"

var (
	// ErrTransport reports a frame that could not be queued for a client:
	// the client is closed or its send buffer is full.
	ErrTransport = errors.New("transport error")

	// ErrNotJoined reports an event that needs a room (and for chat, a user)
	// on a connection that has not joined one.
	ErrNotJoined = errors.New("connection has not joined a room")
)
