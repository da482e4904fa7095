// Package realtime implements the studio's WebSocket layer: a Hub that
// partitions connections into rooms, a Handler that applies inbound events
// to the store and schedules assistant replies, and a Server that moves
// frames between gorilla/websocket connections and the hub.
//
// This file implements the Hub. It keeps two indexes under one RWMutex:
//   - clients: every registered connection, joined or not
//   - rooms:   room name to the clients whose session names that room
//
// A client belongs to at most one room, the one it joined last. Broadcasts
// take the read lock and never block on a slow client: frames are offered to
// each client's bounded send queue and dropped for that client alone when the
// queue is full or closed.
package realtime

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub tracks live clients and the room each one has joined. The zero value
// is not usable; call NewHub. Safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// Register adds c to the live set. A registered client receives nothing
// until it joins a room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	connections.Inc()
}

// Unregister removes c from the live set and its room, then closes it.
// Calling it for an unknown or already removed client is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		h.leave(c, c.Session().Room)
	}
	h.mu.Unlock()
	if ok {
		connections.Dec()
	}
	c.Close()
}

// Join moves c into room, replacing any previous membership, and records
// the optional user and project ids on the client's session. Rejoining the
// same room only refreshes the ids. It reports false when c is not
// registered or already closed.
func (h *Hub) Join(c *Client, room string, userID, projectID *int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	prev, ok := c.join(room, userID, projectID)
	if !ok {
		return false
	}
	h.leave(c, prev)
	members := h.rooms[room]
	if members == nil {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	return true
}

// leave drops c from room and deletes the room once empty. Callers hold
// h.mu for writing.
func (h *Hub) leave(c *Client, room string) {
	if room == "" {
		return
	}
	members := h.rooms[room]
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast sends event to every open client in room and returns how many
// accepted it.
//
// Behavior:
//   - event is marshaled once; a marshal failure is the only error returned
//   - each recipient gets a non-blocking enqueue; a full or closed queue is
//     logged and counted as "dropped" and the loop moves on
//   - an unknown or empty room is a no-op returning 0
func (h *Hub) Broadcast(room string, event any) (int, error) {
	frame, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("marshal event: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for c := range h.rooms[room] {
		if err := c.enqueue(frame); err != nil {
			deliveries.WithLabelValues("dropped").Inc()
			log.Warn().Err(err).Str("conn_id", c.ID()).Str("room", room).Msg("dropping frame for client")
			continue
		}
		deliveries.WithLabelValues("ok").Inc()
		sent++
	}
	return sent, nil
}

// RoomSize returns the number of clients currently in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unregisters and closes every client. Used during shutdown after the
// HTTP server stopped accepting upgrades.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.Unregister(c)
	}
}
