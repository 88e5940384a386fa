package websocket

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes mounts the notification websocket under the given router.
func RegisterRoutes(r fiber.Router, hub *Hub) {
	ws := r.Group("/ws")
	ws.Use(func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/notifications", websocket.New(func(conn *websocket.Conn) {
		ServeWs(hub, conn)
	}))
}

// ServeWs handles websocket requests from the peer.
func ServeWs(hub *Hub, conn *websocket.Conn) {
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
