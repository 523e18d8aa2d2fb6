// Package websocket adapts gorilla/websocket connections onto the
// session and eventbus packages: each connection gets its own Session
// (subscription state) and eventbus.Subscriber (mailbox), bridged by a
// Client running the cooperative read/write/forward loop from §4.F.
// Grounded directly on the teacher's ws.Hub/ws.Client pair; the
// symbol-subscription bookkeeping the teacher kept inside Hub now lives
// in the session package instead, so Hub's only remaining job is
// tracking live connections for graceful shutdown.
package websocket

import (
	"sync"

	"go.uber.org/zap"
)

// Hub tracks every live Client so Shutdown can close them all.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
	logger  *zap.Logger
}

// NewHub builds an empty Hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{clients: make(map[*Client]struct{}), logger: logger}
}

// Register adds a client to the live set.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("client registered", zap.String("client_id", c.ID))
}

// Unregister removes a client from the live set. Safe to call more than
// once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	h.logger.Info("client unregistered", zap.String("client_id", c.ID))
}

// Shutdown closes every live connection, for use during graceful
// server shutdown.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
