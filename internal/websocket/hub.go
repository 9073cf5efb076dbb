// internal/websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"sentinel-service/internal/pkg/events"

	"go.uber.org/zap"
)

// Hub pushes session security events to the connected clients of each
// account. It implements events.Sink, so the lifecycle manager can treat it
// like any other observability sink.
type Hub struct {
	// Registered clients by account ID
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client

	notify chan *events.Event

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		Register:   make(chan *Client),
		unregister: make(chan *Client),
		notify:     make(chan *events.Event, 256),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case ev := <-h.notify:
			h.dispatch(ev)
		}
	}
}

// Emit queues a security event for the account's connected clients. Never
// blocks: if the hub is saturated the event is dropped (the zap sink still
// records it).
func (h *Hub) Emit(_ context.Context, ev *events.Event) {
	select {
	case h.notify <- ev:
	default:
		h.logger.Warn("event hub saturated, dropping event",
			zap.String("event_type", string(ev.Type)),
			zap.Int64("account_id", ev.AccountID),
		)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.accountID] == nil {
		h.clients[client.accountID] = make(map[*Client]bool)
	}
	h.clients[client.accountID][client] = true

	h.logger.Debug("websocket client connected",
		zap.Int64("account_id", client.accountID),
		zap.Int("total", len(h.clients[client.accountID])),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.clients[client.accountID]; ok {
		if _, ok := set[client]; ok {
			delete(set, client)
			close(client.send)
			if len(set) == 0 {
				delete(h.clients, client.accountID)
			}
		}
	}
}

func (h *Hub) dispatch(ev *events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[ev.AccountID] {
		select {
		case client.send <- data:
		default:
			// Slow consumer: drop the event rather than stall the hub.
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, set := range h.clients {
		for client := range set {
			close(client.send)
		}
	}
	h.clients = make(map[int64]map[*Client]bool)
}
