package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/lotto-engine/internal/api/middleware"
	"github.com/jstittsworth/lotto-engine/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, check against allowed origins
		return true
	},
}

type WebSocketHandler struct {
	hub *services.WebSocketHub
}

func NewWebSocketHandler(hub *services.WebSocketHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleWebSocket upgrades the connection and registers the client with
// the hub. New clients start subscribed to simulation progress.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := middleware.UserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Errorf("Failed to upgrade connection: %v", err)
		return
	}

	client := services.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	welcomeMsg := map[string]interface{}{
		"type": "welcome",
		"data": map[string]interface{}{
			"message":   "Connected to lotto engine",
			"topics":    []string{services.TopicSimulation, services.TopicDraws},
			"timestamp": time.Now().UTC(),
		},
	}
	if err := conn.WriteJSON(welcomeMsg); err != nil {
		logrus.Errorf("Failed to send welcome message: %v", err)
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
