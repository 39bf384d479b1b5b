package game

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"blindtest/model"

	"github.com/stretchr/testify/require"
)

type delivery struct {
	room   string
	conn   ConnID
	except ConnID
	event  Event
}

// recorder is a Broadcaster that keeps everything it is asked to send.
type recorder struct {
	mu      sync.Mutex
	sent    []delivery
	panicOn string // event type that makes ToRoom panic
}

func (r *recorder) ToRoom(roomID string, event Event, except ConnID) {
	if r.panicOn != "" && event.EventType() == r.panicOn {
		panic("broadcast exploded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, delivery{room: roomID, except: except, event: event})
}

func (r *recorder) ToConn(roomID string, conn ConnID, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, delivery{room: roomID, conn: conn, event: event})
}

func (r *recorder) of(eventType string) []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []delivery
	for _, d := range r.sent {
		if d.event.EventType() == eventType {
			out = append(out, d)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

type fakeFetcher struct {
	catalog *model.Catalog
	err     error
	gate    chan struct{}
	calls   atomic.Int32
}

func (f *fakeFetcher) FetchCatalog(ctx context.Context, id string) (*model.Catalog, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	// each room gets its own copy like a real fetch would
	c := *f.catalog
	c.Tracks = append([]model.Track(nil), f.catalog.Tracks...)
	return &c, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

var creep = model.Track{
	ID:         3135556,
	ArtistName: "Radiohead",
	Title:      "Creep",
	AlbumTitle: "Pablo Honey",
	CoverURL:   "https://cdn/pablo.jpg",
	PreviewURL: "https://cdns-preview-d.dzcdn.net/stream/c-deda7fa9316d9e9e880d2c6207e92260-8.mp3",
}

func catalogOf(tracks ...model.Track) *model.Catalog {
	return &model.Catalog{ID: "908622995", Title: "Rock Classics", Tracks: tracks}
}

// startRoom runs a room actor with its catalog already delivered.
func startRoom(t *testing.T, catalog *model.Catalog, opts Options) (*Room, *recorder) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rec := &recorder{}
	room := newRoom("908622995", rec, opts)
	go room.run(ctx)
	room.deliverCatalog(ctx, catalog, nil)
	return room, rec
}

func snapshot(t *testing.T, room *Room) Snapshot {
	t.Helper()
	snap, err := room.Snapshot(context.Background())
	require.NoError(t, err)
	return snap
}
