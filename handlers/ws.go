// handlers/ws.go - Realtime notification push
//
// Optional subscribe surface: listing UIs refresh without polling when
// connected. Correctness never depends on it; every read path recomputes
// challenge status from stored fields.
package handlers

import (
	"encoding/json"
	"log"
	"sync"

	"prepclash/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes; reads stay on the handler goroutine
}

func (c *wsClient) send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

type wsHub struct {
	mu      sync.RWMutex
	clients map[string][]*wsClient // user id -> open connections
}

var hub = &wsHub{clients: make(map[string][]*wsClient)}

func (h *wsHub) register(userID string, client *wsClient) {
	h.mu.Lock()
	h.clients[userID] = append(h.clients[userID], client)
	h.mu.Unlock()
}

func (h *wsHub) unregister(userID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := h.clients[userID]
	for i, c := range conns {
		if c == client {
			h.clients[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// Publish pushes a freshly created notification to every connected
// recipient. Best-effort: a dead connection is dropped, never retried.
func (h *wsHub) Publish(notification models.Notification) {
	payload, err := json.Marshal(fiber.Map{
		"event":        "notification",
		"notification": notification,
	})
	if err != nil {
		log.Printf("notification marshal failed: %v", err)
		return
	}

	h.mu.RLock()
	var targets []*wsClient
	for _, userID := range notification.RecipientIDs() {
		targets = append(targets, h.clients[userID]...)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if err := client.send(payload); err != nil {
			client.conn.Close()
		}
	}
}

// WebSocketUpgrade rejects non-websocket requests on the /ws route.
func WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebSocketHandler keeps a connection registered for notification push until
// the client goes away.
var WebSocketHandler = websocket.New(func(conn *websocket.Conn) {
	userID, _ := conn.Locals("userId").(string)
	if userID == "" {
		conn.Close()
		return
	}

	client := &wsClient{conn: conn}
	hub.register(userID, client)
	defer func() {
		hub.unregister(userID, client)
		conn.Close()
	}()

	// Inbound messages are ignored; the read loop only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
})
