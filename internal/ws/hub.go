package ws

import (
	"errors"
	"sync"

	"github.com/saturnino-fabrica-de-software/sorria/internal/liveness"
)

// ErrShuttingDown is the cancellation cause of sessions interrupted by Shutdown
var ErrShuttingDown = errors.New("server shutting down")

// Hub tracks live capture clients so they can be counted and interrupted
type Hub struct {
	clients map[*Client]liveness.Flow
	flows   map[liveness.Flow]int
	closed  bool
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]liveness.Flow),
		flows:   make(map[liveness.Flow]int),
	}
}

// Register adds a client. It returns false once Shutdown has been called.
func (h *Hub) Register(client *Client, flow liveness.Flow) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	if _, ok := h.clients[client]; ok {
		return true
	}
	h.clients[client] = flow
	h.flows[flow]++
	return true
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	flow, ok := h.clients[client]
	if !ok {
		return
	}
	delete(h.clients, client)
	h.flows[flow]--
	if h.flows[flow] == 0 {
		delete(h.flows, flow)
	}
}

// ActiveSessions counts clients in flow
func (h *Hub) ActiveSessions(flow liveness.Flow) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.flows[flow]
}

func (h *Hub) Total() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Shutdown cancels every registered session and refuses new ones
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for client := range h.clients {
		client.cancel(ErrShuttingDown)
	}
}
