// internal/socket/hub.go
package socket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// Event tells dashboards which record changed so they can refetch it.
type Event struct {
	Entity string    `json:"entity"` // technician, team, service-order, ...
	Action string    `json:"action"` // created, updated, deleted
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
}

// Publisher is implemented by anything that can fan out change events.
type Publisher interface {
	Publish(entity, action, id string)
}

// Conn is the subset of *websocket.Conn the hub writes to.
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// sendBuffer is how many events a client may fall behind before it is
// dropped.
const sendBuffer = 16

// client owns one connection; only its run goroutine writes to it.
type client struct {
	id   string
	conn Conn
	send chan []byte
}

func (c *client) run(h *Hub) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Warn("drop websocket client", zap.String("client", c.id), zap.Error(err))
			_ = c.conn.Close()
			h.remove(c)
			// drain until remove closes send
			for range c.send {
			}
			return
		}
	}
}

// Hub manages every connected WebSocket client.
type Hub struct {
	// clients is keyed by a per-connection id.
	clients map[string]*client
	mu      sync.Mutex
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		log:     log,
	}
}

// Register adds a client to the hub and starts its writer. A client
// registered again under the same id replaces the previous one.
func (h *Hub) Register(clientID string, conn Conn) {
	c := &client{id: clientID, conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[clientID]; ok {
		close(old.send)
	}
	h.clients[clientID] = c
	go c.run(h)
	h.log.Debug("websocket client registered", zap.String("client", clientID))
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[clientID]; ok {
		delete(h.clients, clientID)
		close(c.send)
		h.log.Debug("websocket client unregistered", zap.String("client", clientID))
	}
}

// Close unregisters every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues a change event for every client without waiting on any
// connection. A client whose queue is full is dropped.
func (h *Hub) Publish(entity, action, id string) {
	msg, err := json.Marshal(Event{Entity: entity, Action: action, ID: id, At: time.Now().UTC()})
	if err != nil {
		h.log.Error("encode event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for clientID, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("drop slow websocket client", zap.String("client", clientID))
			delete(h.clients, clientID)
			close(c.send)
			_ = c.conn.Close()
		}
	}
}

// remove drops c unless it was already removed or replaced.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
		close(c.send)
	}
}
