package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Message is the wire format pushed to connected clients
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub maintains the set of connected websocket clients and fans broadcast
// messages out to them. Delivery is at-most-once and best-effort: clients
// that connect after a broadcast never see it, slow clients get dropped,
// and broadcasting with zero clients is a no-op.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run drives the hub's register/unregister/broadcast loop. Call it in a
// goroutine before serving connections.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			slog.Debug("Websocket client connected", "client_count", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			slog.Debug("Websocket client disconnected", "client_count", count)

		case message := <-h.broadcast:
			h.send(message)
		}
	}
}

// BroadcastEvent queues an event for delivery to every connected client.
// It never blocks and never returns an error; a full broadcast queue
// drops the message with a warning.
func (h *Hub) BroadcastEvent(event string, data interface{}) {
	message := Message{
		Type:      event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	raw, err := json.Marshal(message)
	if err != nil {
		slog.Error("Failed to marshal broadcast message", "event", event, "error", err)
		return
	}

	select {
	case h.broadcast <- raw:
	default:
		slog.Warn("Broadcast queue full, dropping message", "event", event)
	}
}

// ClientCount returns the number of currently connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) send(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Slow client; drop it rather than stall the others
			delete(h.clients, client)
			close(client.send)
		}
	}
}
