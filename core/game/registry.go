package game

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"blindtest/logger"
	"blindtest/model"

	"github.com/samber/lo"
)

// CatalogFetcher resolves a room identifier into a playlist.
type CatalogFetcher interface {
	FetchCatalog(ctx context.Context, playlistID string) (*model.Catalog, error)
}

// Registry owns every room of the process. Rooms live as long as the
// registry's context.
type Registry struct {
	ctx         context.Context
	broadcaster Broadcaster
	opts        Options
	seeds       atomic.Int64

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry. Room actors stop when ctx is done.
func NewRegistry(ctx context.Context, broadcaster Broadcaster, opts Options) *Registry {
	r := &Registry{
		ctx:         ctx,
		broadcaster: broadcaster,
		opts:        opts,
		rooms:       make(map[string]*Room),
	}
	r.seeds.Store(opts.Seed)
	return r
}

// GetOrCreate returns the room for id. The first caller creates it, starts
// its actor and kicks off exactly one catalog fetch; later callers share it.
func (r *Registry) GetOrCreate(id string, fetcher CatalogFetcher) *Room {
	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return room
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[id]; ok {
		return room
	}

	opts := r.opts
	if opts.Seed != 0 {
		opts.Seed = r.seeds.Add(1)
	}
	room = newRoom(id, r.broadcaster, opts)
	r.rooms[id] = room
	go room.run(r.ctx)
	go r.fetch(room, fetcher)

	logger.Info("room created", logger.String("room_id", id), logger.Int("rooms", len(r.rooms)))
	return room
}

func (r *Registry) fetch(room *Room, fetcher CatalogFetcher) {
	var (
		catalog *model.Catalog
		err     error
	)
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("catalog fetch panicked: %v", rec)
			}
		}()
		catalog, err = fetcher.FetchCatalog(r.ctx, room.id)
	}()
	room.deliverCatalog(r.ctx, catalog, err)
}

// Get returns an existing room.
func (r *Registry) Get(id string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// Rooms returns the current rooms in no particular order.
func (r *Registry) Rooms() []*Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.rooms)
}

// Len returns the number of rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Disconnect removes the player bound to conn from every room. It returns
// the ids of the rooms that player was in.
func (r *Registry) Disconnect(ctx context.Context, conn ConnID) []string {
	var left []string
	for _, room := range r.Rooms() {
		ok, err := room.Leave(ctx, conn)
		if err != nil {
			logger.Warn("disconnect: leave failed",
				logger.String("room_id", room.id),
				logger.String("conn", string(conn)),
				logger.ErrorField(err))
			continue
		}
		if ok {
			left = append(left, room.id)
		}
	}
	return left
}
