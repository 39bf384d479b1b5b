package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"blindtest/core/game"
	"blindtest/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Handler processes one inbound frame.
type Handler func(ctx context.Context, client *Client, msg *Envelope)

// Client is one websocket connection.
type Client struct {
	ID   game.ConnID
	Conn *websocket.Conn
	Send chan []byte

	mu      sync.RWMutex
	players map[string]string // room id -> player id this connection plays as
}

// NewClient wraps conn with a fresh connection id.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:      game.ConnID(uuid.NewString()),
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		players: make(map[string]string),
	}
}

// Bind records which player this connection is in roomID.
func (c *Client) Bind(roomID, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.players[roomID] = playerID
}

// Unbind forgets the player of roomID.
func (c *Client) Unbind(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.players, roomID)
}

// PlayerID returns the player this connection joined roomID as.
func (c *Client) PlayerID(roomID string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.players[roomID]
	return id, ok
}

// enqueue drops the frame when the client cannot keep up. Callers hold the
// hub's read lock so Send is still open.
func (c *Client) enqueue(data []byte) {
	select {
	case c.Send <- data:
	default:
		logger.Warn("send buffer full, message dropped", logger.String("conn", string(c.ID)))
	}
}

// Reply sends a frame straight back to this client.
func (c *Client) Reply(h *Hub, msg *Envelope) {
	msg.Timestamp = time.Now().UnixMilli()
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.ID]; ok {
		c.enqueue(data)
	}
}

// ReplyError sends an error frame about roomID.
func (c *Client) ReplyError(h *Hub, roomID, message string) {
	data, _ := json.Marshal(ErrorData{Message: message})
	c.Reply(h, &Envelope{Type: MsgTypeError, RoomID: roomID, Data: data})
}

// ReadPump reads frames until the connection fails or ctx is done, then
// unregisters the client from h.
func (c *Client) ReadPump(ctx context.Context, h *Hub, handler Handler) {
	defer func() {
		h.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", logger.ErrorField(err), logger.String("conn", string(c.ID)))
			}
			return
		}

		var msg Envelope
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Warn("invalid message format", logger.ErrorField(err), logger.String("conn", string(c.ID)))
			c.ReplyError(h, "", "invalid message format")
			continue
		}
		if msg.Type == MsgTypePing {
			c.Reply(h, &Envelope{Type: MsgTypePong})
			continue
		}
		handler(ctx, c, &msg)
	}
}

// WritePump drains Send into the socket and keeps the connection alive with
// pings. It returns when Send is closed.
func (c *Client) WritePump() {
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
