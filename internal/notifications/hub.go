package notifications

import (
	"context"
	"errors"
	"sync"

	"pepeboard/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// DefaultMaxConnections caps concurrent websocket sessions per process.
const DefaultMaxConnections = 10000

// ErrConnectionLimit is returned by Register when the hub is full.
var ErrConnectionLimit = errors.New("server connection limit reached")

// ErrHubClosed is returned by Register after Shutdown.
var ErrHubClosed = errors.New("hub is shutting down")

// Hub tracks every connected board client. There is a single audience: all
// sessions receive every event.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	maxConns int
	closed   bool
}

// NewHub creates a hub. maxConns <= 0 uses DefaultMaxConnections.
func NewHub(maxConns int) *Hub {
	if maxConns <= 0 {
		maxConns = DefaultMaxConnections
	}
	return &Hub{
		clients:  make(map[*Client]struct{}),
		maxConns: maxConns,
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "board hub" }

// Register adds a connection and queues its connected event ahead of any
// broadcast. conn may be nil in tests.
func (h *Hub) Register(conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if len(h.clients) >= h.maxConns {
		return nil, ErrConnectionLimit
	}

	client := newClient(h, conn)
	welcome, err := Event{Type: EventConnected, Payload: map[string]string{"client_id": client.ID}}.Encode()
	if err != nil {
		return nil, err
	}
	client.Send <- []byte(welcome)

	h.clients[client] = struct{}{}
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient removes the client and closes its send channel, which
// stops its write pump. Safe to call more than once.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	observability.WebSocketConnectionsTotal.Dec()
}

// BroadcastAll sends message to every connected websocket client. It never
// blocks on a slow client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data := []byte(message)
	for c := range h.clients {
		c.TrySend(data)
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StartWiring subscribes to the notifier and forwards every payload to the
// local clients. With a nil or disabled notifier it does nothing.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	if n == nil {
		return nil
	}
	return n.StartSubscriber(ctx, func(payload string) {
		observability.BroadcastEvents.WithLabelValues(typeOf(payload), "received").Inc()
		h.BroadcastAll(payload)
	})
}

// Shutdown closes every client's send channel. Each write pump then sends a
// going-away close frame and closes its connection.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for client := range h.clients {
		delete(h.clients, client)
		close(client.Send)
		observability.WebSocketConnectionsTotal.Dec()
	}
	return nil
}
