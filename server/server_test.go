package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"blindtest/config"
	"blindtest/core/game"
	"blindtest/core/hub"
	"blindtest/model"
	"blindtest/repository"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	catalog *model.Catalog
}

func (f *stubFetcher) FetchCatalog(_ context.Context, id string) (*model.Catalog, error) {
	c := *f.catalog
	c.ID = id
	c.Tracks = append([]model.Track(nil), f.catalog.Tracks...)
	return &c, nil
}

// memRepo is an in-memory BlindtestRepository.
type memRepo struct {
	mu       sync.Mutex
	nextID   uint
	items    map[uint]model.Blindtest
	lastOpts repository.ListOptions
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, items: map[uint]model.Blindtest{}}
}

func (r *memRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Blindtest, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastOpts = opts
	var out []model.Blindtest
	for id := uint(1); id < r.nextID; id++ {
		if b, ok := r.items[id]; ok {
			out = append(out, b)
		}
	}
	total := int64(len(out))
	if opts.Offset >= len(out) {
		return nil, total, nil
	}
	out = out[opts.Offset:]
	if len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, total, nil
}

func (r *memRepo) Create(_ context.Context, b *model.Blindtest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.ID = r.nextID
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.nextID++
	r.items[b.ID] = *b
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uint) (*model.Blindtest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *memRepo) Delete(_ context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	return true, nil
}

var creep = model.Track{
	ID:         3135556,
	ArtistName: "Radiohead",
	Title:      "Creep",
	AlbumTitle: "Pablo Honey",
	PreviewURL: "https://cdns-preview-d.dzcdn.net/stream/c-deda7fa9316d9e9e880d2c6207e92260-8.mp3",
}

func testConfig() *config.Config {
	return &config.Config{
		TickInterval:  time.Hour,
		RoundDuration: 30 * time.Second,
		WaitDuration:  5 * time.Second,
		InboxSize:     64,
	}
}

func newTestServer(t *testing.T, deps Deps) (*Server, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	if deps.Fetcher == nil {
		deps.Fetcher = &stubFetcher{catalog: &model.Catalog{Title: "Rock Classics", Tracks: []model.Track{creep}}}
	}
	s := New(ctx, testConfig(), deps)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		s.Close()
		cancel()
	})
	return s, srv
}

func TestHealthz(t *testing.T) {
	_, srv := newTestServer(t, Deps{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 0, body["rooms"])
}

func TestBlindtestRoutesNeedRepository(t *testing.T) {
	_, srv := newTestServer(t, Deps{})

	resp, err := http.Get(srv.URL + "/blindtests")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownRoomSnapshot(t *testing.T) {
	_, srv := newTestServer(t, Deps{})

	resp, err := http.Get(srv.URL + "/api/rooms/nope")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ---- websocket helpers ----

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType, roomID string, data interface{}) {
	t.Helper()
	env := hub.Envelope{Type: msgType, RoomID: roomID}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		env.Data = raw
	}
	require.NoError(t, conn.WriteJSON(&env))
}

// expect reads frames until one of the given type shows up.
func expect(t *testing.T, conn *websocket.Conn, msgType string) hub.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var env hub.Envelope
		require.NoError(t, conn.ReadJSON(&env), "waiting for %s", msgType)
		if env.Type == msgType {
			return env
		}
	}
}

func join(t *testing.T, conn *websocket.Conn, roomID string, player game.PlayerInfo) game.Welcome {
	t.Helper()
	send(t, conn, hub.MsgTypeJoin, roomID, hub.JoinData{Player: player})
	env := expect(t, conn, game.EventWelcome)
	require.Equal(t, roomID, env.RoomID)
	var welcome game.Welcome
	require.NoError(t, json.Unmarshal(env.Data, &welcome))
	return welcome
}

func TestGameOverWebSocket(t *testing.T) {
	req := require.New(t)
	s, srv := newTestServer(t, Deps{})
	const roomID = "908622995"

	alice := dial(t, srv)
	join(t, alice, roomID, game.PlayerInfo{ID: "a", Name: "Alice"})

	room, ok := s.registry.Get(roomID)
	req.True(ok)
	req.Eventually(func() bool { return room.State() == game.StateReady }, 2*time.Second, 5*time.Millisecond)

	bob := dial(t, srv)
	welcome := join(t, bob, roomID, game.PlayerInfo{ID: "b", Name: "Bob"})
	req.Equal("Rock Classics", welcome.Title)
	req.Len(welcome.Players, 2)

	roster := expect(t, alice, game.EventRosterBroadcast)
	var rb game.RosterBroadcast
	req.NoError(json.Unmarshal(roster.Data, &rb))
	req.Equal("b", rb.Joined.ID)

	s.scheduler.TickOnce(time.Now())
	for _, conn := range []*websocket.Conn{alice, bob} {
		env := expect(t, conn, game.EventTrackStarted)
		var started game.TrackStarted
		req.NoError(json.Unmarshal(env.Data, &started))
		req.Equal(creep.ID, started.TrackID)
		req.Equal("deda7fa9316d9e9e880d2c6207e92260", started.Fingerprint)
	}

	send(t, alice, hub.MsgTypeGuess, roomID, hub.GuessData{Guess: "creep"})
	var correct game.GuessCorrect
	req.NoError(json.Unmarshal(expect(t, alice, game.EventGuessCorrect).Data, &correct))
	req.Equal(3, correct.Score)

	var seen game.GuessCorrectBroadcast
	req.NoError(json.Unmarshal(expect(t, bob, game.EventGuessCorrectBroadcast).Data, &seen))
	req.Equal("a", seen.PlayerID)
	req.Equal(3, seen.Score)

	req.NoError(bob.Close())
	var left game.PlayerLeft
	req.NoError(json.Unmarshal(expect(t, alice, game.EventPlayerLeft).Data, &left))
	req.Equal("b", left.Player.ID)

	resp, err := http.Get(srv.URL + "/api/rooms/" + roomID)
	req.NoError(err)
	defer resp.Body.Close()
	var snap struct {
		State   string            `json:"state"`
		Players []game.PlayerView `json:"players"`
	}
	req.NoError(json.NewDecoder(resp.Body).Decode(&snap))
	req.Equal("started", snap.State)
	req.Equal([]game.PlayerView{{ID: "a", Name: "Alice", Score: 3}}, snap.Players)
}

func TestExplicitLeave(t *testing.T) {
	s, srv := newTestServer(t, Deps{})
	alice := dial(t, srv)
	bob := dial(t, srv)
	join(t, alice, "r1", game.PlayerInfo{ID: "a"})
	join(t, bob, "r1", game.PlayerInfo{ID: "b"})

	send(t, bob, hub.MsgTypeLeave, "r1", nil)
	expect(t, alice, game.EventPlayerLeft)

	room, _ := s.registry.Get("r1")
	snap, err := room.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, "a", snap.Players[0].ID)
}

func TestWebSocketErrors(t *testing.T) {
	_, srv := newTestServer(t, Deps{})
	conn := dial(t, srv)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("garbage")))
	expect(t, conn, hub.MsgTypeError)

	send(t, conn, "dance", "r1", nil)
	expect(t, conn, hub.MsgTypeError)

	send(t, conn, hub.MsgTypeGuess, "never-joined", hub.GuessData{Guess: "x"})
	env := expect(t, conn, hub.MsgTypeError)
	assert.Equal(t, "never-joined", env.RoomID)

	send(t, conn, hub.MsgTypeJoin, "", nil)
	expect(t, conn, hub.MsgTypeError)

	send(t, conn, hub.MsgTypePing, "", nil)
	expect(t, conn, hub.MsgTypePong)
}
