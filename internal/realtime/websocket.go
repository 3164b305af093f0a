// internal/realtime/websocket.go
package realtime

import (
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Serve pumps hub events to an authenticated socket until the peer goes
// away. Inbound frames are only read to notice the close.
func (h *Hub) Serve(c *websocket.Conn, userID uuid.UUID) {
	client := NewClient(userID)

	h.RegisterClient(client)
	defer func() {
		h.UnregisterClient(client)
		log.Printf("WebSocket: user %s disconnected\n", userID)
	}()

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
		}
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			log.Printf("WebSocket read error for user %s: %v\n", userID, err)
			return
		}
	}
}
