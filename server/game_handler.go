package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"blindtest/core/game"
	"blindtest/core/hub"
	"blindtest/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const actionTimeout = 5 * time.Second

// GameHandler serves the game websocket and dispatches its messages to
// the rooms.
type GameHandler struct {
	ctx      context.Context
	registry *game.Registry
	hub      *hub.Hub
	fetcher  game.CatalogFetcher
	upgrader websocket.Upgrader
}

// NewGameHandler creates the handler. Connections are served until ctx is done.
func NewGameHandler(ctx context.Context, registry *game.Registry, h *hub.Hub, fetcher game.CatalogFetcher) *GameHandler {
	return &GameHandler{
		ctx:      ctx,
		registry: registry,
		hub:      h,
		fetcher:  fetcher,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// WebSocketHandler upgrades the request and runs the client pumps.
func (h *GameHandler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := hub.NewClient(conn)
	h.hub.Register(client)
	logger.Info("websocket connected", logger.String("conn", string(client.ID)), logger.String("remote", r.RemoteAddr))

	go client.WritePump()
	go func() {
		client.ReadPump(h.ctx, h.hub, h.HandleMessage)
		h.disconnect(client)
	}()
}

// disconnect removes whoever played on this connection from every room.
func (h *GameHandler) disconnect(client *hub.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	rooms := h.registry.Disconnect(ctx, client.ID)
	logger.Info("websocket disconnected",
		logger.String("conn", string(client.ID)),
		logger.Int("rooms_left", len(rooms)))
}

// HandleMessage dispatches one inbound frame.
func (h *GameHandler) HandleMessage(ctx context.Context, client *hub.Client, msg *hub.Envelope) {
	if msg.RoomID == "" {
		client.ReplyError(h.hub, "", "roomId is required")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	var err error
	switch msg.Type {
	case hub.MsgTypeJoin:
		err = h.handleJoin(ctx, client, msg)
	case hub.MsgTypeGuess:
		err = h.handleGuess(ctx, client, msg)
	case hub.MsgTypeLeave:
		err = h.handleLeave(ctx, client, msg)
	default:
		client.ReplyError(h.hub, msg.RoomID, "unknown message type: "+msg.Type)
		return
	}

	if err != nil {
		logger.Warn("message handling failed",
			logger.String("type", msg.Type),
			logger.String("room_id", msg.RoomID),
			logger.String("conn", string(client.ID)),
			logger.ErrorField(err))
		client.ReplyError(h.hub, msg.RoomID, err.Error())
	}
}

func (h *GameHandler) handleJoin(ctx context.Context, client *hub.Client, msg *hub.Envelope) error {
	var data hub.JoinData
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return errors.New("invalid join payload")
		}
	}
	playerID := data.Player.ID
	if playerID == "" {
		playerID = string(client.ID)
	}

	room := h.registry.GetOrCreate(msg.RoomID, h.fetcher)
	h.hub.Subscribe(msg.RoomID, client)
	client.Bind(msg.RoomID, playerID)
	return room.Join(ctx, data.Player, client.ID)
}

func (h *GameHandler) handleGuess(ctx context.Context, client *hub.Client, msg *hub.Envelope) error {
	room, ok := h.registry.Get(msg.RoomID)
	if !ok {
		return game.ErrUnknownRoom
	}
	playerID, ok := client.PlayerID(msg.RoomID)
	if !ok {
		// guesses from outside the roster are ignored
		return nil
	}
	var data hub.GuessData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return errors.New("invalid guess payload")
	}

	out, err := room.SubmitGuess(ctx, playerID, data.Guess)
	if err != nil {
		return err
	}
	logger.Debug("guess handled",
		logger.String("room_id", msg.RoomID),
		logger.String("player_id", playerID),
		logger.String("outcome", out.Kind.String()))
	return nil
}

func (h *GameHandler) handleLeave(ctx context.Context, client *hub.Client, msg *hub.Envelope) error {
	room, ok := h.registry.Get(msg.RoomID)
	if !ok {
		return game.ErrUnknownRoom
	}
	if _, err := room.Leave(ctx, client.ID); err != nil {
		return err
	}
	h.hub.Unsubscribe(msg.RoomID, client)
	client.Unbind(msg.RoomID)
	return nil
}

// RoomHandler returns a snapshot of a room.
func (h *GameHandler) RoomHandler(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["room_id"]
	room, ok := h.registry.Get(roomID)
	if !ok {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	snap, err := room.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":         snap.ID,
		"title":      snap.Title,
		"state":      snap.State,
		"trackCount": snap.TrackCount,
		"players":    snap.Players,
	})
}

// RegisterGameRoutes mounts the websocket endpoint and the room lookup.
func RegisterGameRoutes(router *mux.Router, handler *GameHandler) {
	router.HandleFunc("/ws", handler.WebSocketHandler)
	router.HandleFunc("/api/rooms/{room_id}", handler.RoomHandler).Methods(http.MethodGet)
}
