// Package realtime – Client
//
// This file models one WebSocket connection from the hub's point of view:
// its connection id, its bounded outbound queue and its session (state,
// room, user and project). The gorilla connection itself lives in server.go;
// keeping it out of Client lets hub and handler tests run without sockets.
package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Connection states. A client starts connected, becomes joined on its first
// successful join and ends closed; closed is terminal.
const (
	StateConnected = "connected"
	StateJoined    = "joined"
	StateClosed    = "closed"
)

// Session is a point-in-time copy of what a client has joined. UserID and
// ProjectID are nil when the join event did not carry them.
type Session struct {
	State     string
	Room      string
	UserID    *int64
	ProjectID *int64
}

// Joined reports whether the session is in a room.
func (s Session) Joined() bool { return s.State == StateJoined && s.Room != "" }

// Client is one live connection as seen by the hub.
//
// Frames queued with enqueue are drained by the transport's writer. The send
// channel is never closed, so a broadcast racing with Close cannot panic;
// done is closed instead and tells the writer to stop. Session fields are
// guarded by mu because the reader goroutine, broadcasts and delayed replies
// all read them.
type Client struct {
	id   string
	send chan []byte
	done chan struct{}

	closeOnce sync.Once

	mu        sync.Mutex
	state     string
	room      string
	userID    *int64
	projectID *int64
}

// NewClient returns a connected client with a send buffer of size buf
// (at least 1) and a fresh UUID used as conn_id in logs.
func NewClient(buf int) *Client {
	if buf < 1 {
		buf = 1
	}
	return &Client{
		id:    uuid.NewString(),
		send:  make(chan []byte, buf),
		done:  make(chan struct{}),
		state: StateConnected,
	}
}

// ID returns the connection id used in logs.
func (c *Client) ID() string { return c.id }

// Send exposes queued frames to the writer.
func (c *Client) Send() <-chan []byte { return c.send }

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} { return c.done }

// Session returns a snapshot of the client's room membership.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Session{State: c.state, Room: c.room, UserID: c.userID, ProjectID: c.projectID}
}

// join records room and the ids on the session and returns the room the
// client was in before. It fails once the client is closed.
func (c *Client) join(room string, userID, projectID *int64) (prev string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return "", false
	}
	prev = c.room
	c.state = StateJoined
	c.room = room
	c.userID = userID
	c.projectID = projectID
	return prev, true
}

// Close marks the client closed and releases its writer. Safe to call more
// than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()
		close(c.done)
	})
}

// closed reports whether Close has run.
func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// enqueue queues frame without blocking. It returns ErrTransport when the
// client is closed or the send buffer is full.
func (c *Client) enqueue(frame []byte) error {
	if c.closed() {
		return ErrTransport
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrTransport
	}
}
