package websocket

import (
	"context"
	"encoding/json"
	"time"

	"mistral-thing-be/internal/dto"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// UserID associated with this connection
	UserID uuid.UUID

	// Buffered channel of outbound messages.
	Send chan []byte

	// Topics this client follows; guarded by Hub.mu.
	topics map[string]bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 256),
		topics: make(map[string]bool),
	}
}

// handleCommand applies one subscribe or unsubscribe request and returns
// the acknowledgement to send back.
func (c *Client) handleCommand(ctx context.Context, raw []byte) dto.SyncEvent {
	var cmd dto.SyncCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return dto.SyncEvent{Type: "error", Data: "malformed command"}
	}

	switch cmd.Action {
	case "subscribe":
		if !c.Hub.Subscribe(ctx, c, cmd.Topic) {
			return dto.SyncEvent{Type: "error", Topic: cmd.Topic, Data: "subscription refused"}
		}
		return dto.SyncEvent{Type: "subscribed", Topic: cmd.Topic}
	case "unsubscribe":
		c.Hub.Unsubscribe(c, cmd.Topic)
		return dto.SyncEvent{Type: "unsubscribed", Topic: cmd.Topic}
	default:
		return dto.SyncEvent{Type: "error", Topic: cmd.Topic, Data: "unknown action"}
	}
}

func (c *Client) reply(event dto.SyncEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()
	if !c.Hub.clients[c] {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// readPump pumps commands from the websocket connection to the hub.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
			}
			break
		}
		c.reply(c.handleCommand(ctx, raw))
	}
}

// writePump pumps messages from the hub to the websocket connection.
// Each event goes out as its own frame so clients can parse them one by one.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
