package hub

import (
	"encoding/json"
	"sync"
	"time"

	"blindtest/core/game"
	"blindtest/logger"
)

// Inbound message types.
const (
	MsgTypeJoin  = "join"
	MsgTypeGuess = "guess"
	MsgTypeLeave = "leave"
	MsgTypePing  = "ping"
	MsgTypePong  = "pong"
	MsgTypeError = "error"
)

// Envelope is the frame exchanged over the socket in both directions.
type Envelope struct {
	Type      string          `json:"type"`
	RoomID    string          `json:"roomId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// JoinData is the payload of a join message.
type JoinData struct {
	Player game.PlayerInfo `json:"player"`
}

// GuessData is the payload of a guess message.
type GuessData struct {
	Guess string `json:"guess"`
}

// ErrorData is the payload of an error message.
type ErrorData struct {
	Message string `json:"message"`
}

// Hub tracks live connections and which rooms they are in. It implements
// game.Broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[game.ConnID]*Client
	rooms   map[string]map[*Client]bool
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		clients: make(map[game.ConnID]*Client),
		rooms:   make(map[string]map[*Client]bool),
	}
}

// Register makes a client addressable.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	logger.Debug("client registered", logger.String("conn", string(client.ID)))
}

// Unregister drops the client from every room and closes its send queue.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeClient(client)
}

// removeClient needs the write lock.
func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	for roomID, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	close(client.Send)
	logger.Debug("client unregistered", logger.String("conn", string(client.ID)))
}

// Subscribe adds the client to a room's audience.
func (h *Hub) Subscribe(roomID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
}

// Unsubscribe removes the client from a room's audience.
func (h *Hub) Unsubscribe(roomID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// ToRoom implements game.Broadcaster.
func (h *Hub) ToRoom(roomID string, event game.Event, except game.ConnID) {
	data, err := encode(roomID, event)
	if err != nil {
		logger.Error("encode event failed", logger.String("type", event.EventType()), logger.ErrorField(err))
		return
	}

	// Sends never block, so holding the read lock keeps Unregister from
	// closing a queue under our feet.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[roomID] {
		if except != "" && client.ID == except {
			continue
		}
		client.enqueue(data)
	}
}

// ToConn implements game.Broadcaster.
func (h *Hub) ToConn(roomID string, conn game.ConnID, event game.Event) {
	data, err := encode(roomID, event)
	if err != nil {
		logger.Error("encode event failed", logger.String("type", event.EventType()), logger.ErrorField(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if client, ok := h.clients[conn]; ok {
		client.enqueue(data)
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of connections subscribed to a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Stop closes every connection's send queue.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.clients {
		h.removeClient(client)
	}
}

func encode(roomID string, event game.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Envelope{
		Type:      event.EventType(),
		RoomID:    roomID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}
