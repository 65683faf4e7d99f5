// Package ws is the concrete bidirectional Transport: a gorilla/websocket
// upgrade handler plus a registry-backed Hub satisfying
// internal/transport.Transport — one mailbox per connection, eviction by
// connection close rather than an idle-timeout sweep, since the
// Tournament Runtime's own TimeoutMonitor already governs per-member
// inactivity.
package ws

import (
	"log/slog"
	"sync"

	"github.com/webitel/tournament-runtime/internal/transport"
)

var _ transport.Transport = (*Hub)(nil)

// Hub tracks every live connection and its room memberships, and fans out
// events to them. It implements internal/transport.Transport.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*connection
	rooms       map[string]map[string]struct{} // room -> set of connIDs

	logger *slog.Logger
}

// NewHub builds an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*connection),
		rooms:       make(map[string]map[string]struct{}),
		logger:      logger,
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c.id] = c
}

func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.connections, connID)
	for room, members := range h.rooms {
		if _, ok := members[connID]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

// EmitTo implements transport.Transport.
func (h *Hub) EmitTo(connID, event string, payload any) bool {
	h.mu.RLock()
	c, ok := h.connections[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return c.enqueue(event, payload)
}

// Broadcast implements transport.Transport.
func (h *Hub) Broadcast(room, event string, payload any, exclude ...string) {
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	h.mu.RLock()
	members := h.rooms[room]
	targets := make([]*connection, 0, len(members))
	for id := range members {
		if _, skip := excluded[id]; skip {
			continue
		}
		if c, ok := h.connections[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(event, payload)
	}
}

// Join implements transport.Transport.
func (h *Hub) Join(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[room] = members
	}
	members[connID] = struct{}{}
}

// Leave implements transport.Transport.
func (h *Hub) Leave(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}
