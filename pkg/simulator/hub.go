package simulator

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/omnisense/raindash/pkg/models"
)

const writeTimeout = 10 * time.Second

// Hub fans push events out to every connected websocket client.
type Hub struct {
	logger *zap.SugaredLogger

	mu      sync.Mutex
	clients map[string]*websocket.Conn
}

// NewHub creates an empty hub.
func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[string]*websocket.Conn),
	}
}

// Add registers a connection and returns its id.
func (h *Hub) Add(conn *websocket.Conn) string {
	id := uuid.NewString()

	h.mu.Lock()
	h.clients[id] = conn
	h.mu.Unlock()

	h.logger.Infow("push client connected", "client", id)

	return id
}

// Remove drops a connection by id.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	conn, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.logger.Infow("push client disconnected", "client", id)
	}
}

// Broadcast sends one event envelope to every client. Clients that fail
// the write are dropped.
func (h *Hub) Broadcast(event string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Errorw("failed to marshal push payload", "event", event, "error", err)
		return
	}

	data, err := json.Marshal(models.Envelope{Event: event, Payload: raw})
	if err != nil {
		h.logger.Errorw("failed to marshal push envelope", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))

		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warnw("dropping push client", "client", id, "error", err)
			conn.Close()
			delete(h.clients, id)
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.clients {
		conn.Close()
		delete(h.clients, id)
	}
}
