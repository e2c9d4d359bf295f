package events

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nftmarket/pkg/market"
)

const sendQueueSize = 32

// Client is one websocket subscriber. A zero Filter receives every event;
// otherwise only events whose item was sold by or to Filter.
type Client struct {
	ID     uuid.UUID
	Filter common.Address
	Conn   *websocket.Conn
	Send   chan market.Event
	Done   chan struct{}
}

func (c *Client) wants(ev market.Event) bool {
	return c.Filter == (common.Address{}) || ev.Involves(c.Filter)
}

// Hub fans committed market events out to connected subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
}

var _ market.Publisher = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*Client),
	}
}

func (h *Hub) AddClient(conn *websocket.Conn, filter common.Address) *Client {
	client := &Client{
		ID:     uuid.New(),
		Filter: filter,
		Conn:   conn,
		Send:   make(chan market.Event, sendQueueSize),
		Done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
	return client
}

func (h *Hub) RemoveClient(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[id]; ok {
		close(client.Done)
		delete(h.clients, id)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish never blocks the engine: a subscriber whose queue is full misses
// the event.
func (h *Hub) Publish(_ context.Context, ev market.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if !client.wants(ev) {
			continue
		}
		select {
		case client.Send <- ev:
		case <-client.Done:
		default:
			zap.L().With(
				zap.String("client", client.ID.String()),
				zap.String("kind", string(ev.Kind)),
				zap.Uint64("itemId", ev.Item.ID),
			).Warn("Event queue full, dropping event")
		}
	}
	return nil
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.Done)
		_ = client.Conn.Close()
		delete(h.clients, id)
	}
}
