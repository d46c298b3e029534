package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
)

// Hub maintains the set of connected operator clients and fans cycle events
// out to them.
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan domain.Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// mu protects clients
	mu sync.RWMutex

	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan domain.Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast queues an event for every interested client. It never blocks a
// sync cycle: when the queue is full the event is dropped.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast queue full, dropping event", "event_type", event.Type)
	}
	return nil
}

// Run starts the hub's event loop and returns when ctx is cancelled, closing
// every client connection on the way out.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Register adds a client. After the hub stopped the client is closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.CloseSend()
	}
}

// Unregister removes a client and closes its send queue.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client registered", "subject", client.Subject, "total_connections", total)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if ok {
		client.CloseSend()
		h.logger.Info("client unregistered", "subject", client.Subject)
	}
}

// broadcastEvent runs on the hub goroutine. A client whose queue is full is
// dropped directly; sending on h.unregister from here would deadlock.
func (h *Hub) broadcastEvent(event domain.Event) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event", "event_type", event.Type, "client_count", len(clients))

	for _, client := range clients {
		if !client.Wants(event) {
			continue
		}
		if !client.enqueue(event) {
			h.logger.Warn("client send buffer full, disconnecting", "subject", client.Subject)
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for client := range clients {
		client.CloseSend()
	}
	h.logger.Info("hub stopped", "closed_connections", len(clients))
}
