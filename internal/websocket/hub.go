package websocket

import (
	"context"
	"encoding/json"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const clusterChannel = "assistant_events"

// Hub fans transient notifications out to every connected UI. This is a
// single-user system, so there is no per-user routing: every client gets
// every notification. Redis pubsub bridges instances when configured.
type Hub struct {
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Serialized frames ready for fan-out.
	broadcast chan []byte

	// Redis connection for cross-instance communication, may be nil.
	rdb *redis.Client

	// Dedicated File Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"clients": len(h.clients)})

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"clients": len(h.clients)})
			}

		case frame := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.Send <- frame:
				default:
					delete(h.clients, client)
					close(client.Send)
				}
			}
		}
	}
}

// Broadcast sends a notification to all connected clients, and to other
// instances via Redis when configured.
func (h *Hub) Broadcast(notification entity.Notification) {
	frame, err := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": notification,
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to marshal notification", map[string]interface{}{"error": err.Error()})
		return
	}

	h.broadcast <- frame

	if h.rdb != nil {
		if err := h.rdb.Publish(context.Background(), clusterChannel, frame).Err(); err != nil {
			h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

// subscribeToRedis forwards frames published by other instances to the local
// clients. Frames we published ourselves come back too; the UI treats
// notification ids as idempotent so duplicates are harmless.
func (h *Hub) subscribeToRedis() {
	sub := h.rdb.Subscribe(context.Background(), clusterChannel)
	defer sub.Close()

	for msg := range sub.Channel() {
		h.broadcast <- []byte(msg.Payload)
	}
}
