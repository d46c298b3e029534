package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	sendBufferSize = 32

	// EventPong answers a client PING.
	EventPong domain.EventType = "PONG"
)

// ClientOptions tunes the keepalive of a connection.
type ClientOptions struct {
	PongWait     time.Duration
	PingInterval time.Duration // Must be less than PongWait
}

// Client is a middleman between one operator connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan domain.Event

	// Subject is the token subject of the operator.
	Subject string

	pongWait     time.Duration
	pingInterval time.Duration

	// mu protects cycles and closed
	mu     sync.Mutex
	cycles map[domain.CycleKind]bool
	closed bool

	logger *slog.Logger
}

// NewClient creates a client for an upgraded connection. It receives every
// cycle until it subscribes to specific ones.
func NewClient(hub *Hub, conn *websocket.Conn, subject string, opts ClientOptions, logger *slog.Logger) *Client {
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	if opts.PingInterval <= 0 || opts.PingInterval >= opts.PongWait {
		opts.PingInterval = opts.PongWait * 9 / 10
	}
	return &Client{
		hub:          hub,
		conn:         conn,
		send:         make(chan domain.Event, sendBufferSize),
		Subject:      subject,
		pongWait:     opts.PongWait,
		pingInterval: opts.PingInterval,
		cycles:       make(map[domain.CycleKind]bool),
		logger:       logger.With("component", "websocket_client", "subject", subject),
	}
}

// Start registers the client and runs its pumps in their own goroutines.
func (c *Client) Start() {
	c.hub.Register(c)
	go c.WritePump()
	go c.ReadPump()
}

// Wants reports whether the client is interested in the event.
func (c *Client) Wants(event domain.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cycles) == 0 || event.Payload == nil {
		return true
	}
	return c.cycles[event.Payload.Kind]
}

// Subscriptions returns the cycles the client subscribed to.
func (c *Client) Subscriptions() []domain.CycleKind {
	c.mu.Lock()
	defer c.mu.Unlock()

	kinds := make([]domain.CycleKind, 0, len(c.cycles))
	for _, kind := range []domain.CycleKind{domain.CycleTickets, domain.CycleEquipment} {
		if c.cycles[kind] {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// CloseSend closes the send queue once. Later enqueues are dropped.
func (c *Client) CloseSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// enqueue queues an event without blocking. It returns false when the queue
// is full or closed.
func (c *Client) enqueue(event domain.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

// ReadPump reads control messages until the connection fails.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		c.handleIncomingMessage(message)
	}
}

// WritePump writes queued events and keepalive pings until the queue closes.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.logger.Debug("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// ClientMessage is the structure for messages sent from the client.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SubscribePayload names the cycle of a SUBSCRIBE or UNSUBSCRIBE message.
type SubscribePayload struct {
	Cycle domain.CycleKind `json:"cycle"`
}

func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case "SUBSCRIBE", "UNSUBSCRIBE":
		var p SubscribePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || !p.Cycle.IsValid() {
			c.logger.Warn("invalid subscription request", "payload", string(msg.Payload))
			return
		}
		c.mu.Lock()
		if msg.Type == "SUBSCRIBE" {
			c.cycles[p.Cycle] = true
		} else {
			delete(c.cycles, p.Cycle)
		}
		c.mu.Unlock()

	case "PING":
		c.enqueue(domain.Event{Type: EventPong})

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}
