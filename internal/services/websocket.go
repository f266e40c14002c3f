package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/lotto-engine/internal/simulation"
)

// WebSocketHub fans simulation events out to connected clients. It is
// the transport behind the engine's progress sink: iteration progress,
// batch completion, and draw sync notices all flow through here.
type WebSocketHub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

type Client struct {
	hub    *WebSocketHub
	conn   *websocket.Conn
	send   chan []byte
	userID string

	// mu guards topics: ReadPump mutates it while hub broadcasts read
	// it from other goroutines.
	mu     sync.Mutex
	topics map[string]bool
}

type WebSocketMessage struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

type Subscription struct {
	Action string   `json:"action"` // "subscribe" or "unsubscribe"
	Topics []string `json:"topics"`
}

// Topics clients can subscribe to.
const (
	TopicSimulation = "simulation"
	TopicDraws      = "draws"
)

func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logrus.Infof("WebSocket client registered: user_id=%s", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a new client to the hub.
func (h *WebSocketHub) Register(client *Client) {
	h.register <- client
}

// BroadcastToTopic sends to every client subscribed to the topic.
func (h *WebSocketHub) BroadcastToTopic(topic string, messageType string, data interface{}) error {
	messageBytes, err := encodeMessage(topic, messageType, data)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.IsSubscribedTo(topic) {
			select {
			case client.send <- messageBytes:
			default:
				// Skip if client's buffer is full
			}
		}
	}

	return nil
}

// BroadcastToUser sends to every connection of one user.
func (h *WebSocketHub) BroadcastToUser(userID string, messageType string, data interface{}) error {
	messageBytes, err := encodeMessage("user", messageType, data)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.userID == userID {
			select {
			case client.send <- messageBytes:
			default:
				// Skip if client's buffer is full
			}
		}
	}

	return nil
}

func encodeMessage(topic, messageType string, data interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WebSocketMessage{
		Type:      messageType,
		Topic:     topic,
		Data:      jsonData,
		Timestamp: time.Now().UTC(),
	})
}

// ProgressSink adapts the hub to the engine's progress sink interface.
// Events go to the simulation topic in iteration-completion order.
func (h *WebSocketHub) ProgressSink() simulation.ProgressSink {
	return simulation.ProgressFunc(func(event simulation.ProgressEvent) {
		if err := h.BroadcastToTopic(TopicSimulation, "simulation_progress", event); err != nil {
			logrus.WithError(err).Warn("failed to broadcast simulation progress")
		}
	})
}

func NewClient(hub *WebSocketHub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
		topics: map[string]bool{TopicSimulation: true},
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var sub Subscription
		err := c.conn.ReadJSON(&sub)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket error: %v", err)
			}
			break
		}

		c.applySubscription(sub)
	}
}

func (c *Client) applySubscription(sub Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch sub.Action {
	case "subscribe":
		for _, topic := range sub.Topics {
			c.topics[topic] = true
		}
	case "unsubscribe":
		for _, topic := range sub.Topics {
			delete(c.topics, topic)
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Drain queued messages into the same frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) IsSubscribedTo(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topics[topic] || c.topics["*"]
}
