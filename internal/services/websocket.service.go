package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"streamwatch/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"` // "stats", "auth", "ping", "error"
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Token     string      `json:"token,omitempty"` // For auth messages from client
}

// StatsPayload is pushed to clients after each applied snapshot.
type StatsPayload struct {
	System    models.SystemMetrics   `json:"system"`
	Process   *models.ProcessMetrics `json:"process"`
	Severity  SeverityReport         `json:"severity"`
	Timestamp time.Time              `json:"timestamp"`
}

// ClientConnection represents a connected WebSocket client
type ClientConnection struct {
	ID    string
	Conn  *websocket.Conn
	Send  chan WebSocketMessage
	Close chan bool
}

// WebSocketHub fans poller snapshots out to connected clients.
type WebSocketHub struct {
	classifier *Classifier
	log        *zap.Logger

	clients    map[string]*ClientConnection
	broadcast  chan WebSocketMessage
	register   chan *ClientConnection
	unregister chan string
	done       chan struct{}

	mu     sync.RWMutex
	latest *WebSocketMessage
}

// NewWebSocketHub creates a hub. Call Run to start it.
func NewWebSocketHub(classifier *Classifier, logger *zap.Logger) *WebSocketHub {
	return &WebSocketHub{
		classifier: classifier,
		log:        logger,
		clients:    make(map[string]*ClientConnection),
		broadcast:  make(chan WebSocketMessage, 256),
		register:   make(chan *ClientConnection),
		unregister: make(chan string),
		done:       make(chan struct{}),
	}
}

// Run manages the hub's event loop until ctx is cancelled.
func (h *WebSocketHub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			latest := h.latest
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client connected", zap.String("client", client.ID), zap.Int("total", total))

			// Give new clients something to draw before the next tick.
			if latest != nil {
				select {
				case client.Send <- *latest:
				default:
				}
			}

		case clientID := <-h.unregister:
			h.mu.Lock()
			if client, exists := h.clients[clientID]; exists {
				delete(h.clients, clientID)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client disconnected", zap.String("client", clientID), zap.Int("total", total))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.Send <- msg:
				default:
					// Client's send channel is full, skip this message
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *WebSocketHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.Close)
		delete(h.clients, id)
	}
}

// Publish is a poller observer. It never blocks: when the broadcast queue is
// full the snapshot is skipped.
func (h *WebSocketHub) Publish(ev PollEvent) {
	payload := StatsPayload{
		System:    ev.Snapshot,
		Process:   ev.Process,
		Severity:  h.classifier.ClassifySnapshot(ev.Snapshot),
		Timestamp: ev.At,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to marshal stats", zap.Error(err))
		return
	}

	msg := WebSocketMessage{
		Type:      "stats",
		Timestamp: ev.At,
		Data:      json.RawMessage(data),
	}

	h.mu.Lock()
	h.latest = &msg
	h.mu.Unlock()

	select {
	case h.broadcast <- msg:
	default:
		h.log.Debug("broadcast queue full, skipping snapshot")
	}
}

// ClientCount returns the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a new client to the hub. It returns false once the hub
// has shut down.
func (h *WebSocketHub) Register(client *ClientConnection) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *WebSocketHub) Unregister(clientID string) {
	select {
	case h.unregister <- clientID:
	case <-h.done:
	}
}
