package websocket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/bizmarket-backend/pkg/logger"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Clients only send small control messages.
	maxMessageSize = 4 * 1024

	maxMessagesPerSecond = 10

	sendBuffer = 256
)

// ClientMessage is an inbound frame. Only {"type":"ping"} is understood.
type ClientMessage struct {
	Type string `json:"type"`
}

// Client is one live websocket session of a user.
type Client struct {
	UserID uint

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	messageCount  int
	lastResetTime time.Time
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		UserID:        userID,
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, sendBuffer),
		lastResetTime: time.Now(),
	}
}

// Serve registers the client and starts its pumps.
func (c *Client) Serve() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

// allow applies the per-second inbound message limit.
func (c *Client) allow(now time.Time) bool {
	if now.Sub(c.lastResetTime) >= time.Second {
		c.messageCount = 0
		c.lastResetTime = now
	}
	c.messageCount++
	return c.messageCount <= maxMessagesPerSecond
}

func (c *Client) handleMessage(message []byte) {
	if !c.allow(time.Now()) {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user_id": c.UserID,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil || msg.Type != "ping" {
		return
	}
	// Application pings count as liveness for clients that cannot answer
	// protocol pings.
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket read error", err, map[string]interface{}{
					"user_id": c.UserID,
				})
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error("Failed to write message", err, map[string]interface{}{
					"user_id": c.UserID,
				})
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
