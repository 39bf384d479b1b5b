package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"blindtest/logger"
	"blindtest/model"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned by a Store when the key is absent.
var ErrMiss = errors.New("cache: miss")

// Store is the byte-level key/value surface the catalog cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore adapts a go-redis client to Store.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	return data, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Fetcher is anything that can load a playlist.
type Fetcher interface {
	FetchCatalog(ctx context.Context, playlistID string) (*model.Catalog, error)
}

// CatalogCache is a read-through cache in front of a Fetcher. Failures of the
// store never fail a fetch; errors from the upstream are not cached.
type CatalogCache struct {
	next  Fetcher
	store Store
	ttl   time.Duration
}

// NewCatalogCache wraps next. A non-positive ttl keeps entries forever.
func NewCatalogCache(next Fetcher, store Store, ttl time.Duration) *CatalogCache {
	if ttl < 0 {
		ttl = 0
	}
	return &CatalogCache{next: next, store: store, ttl: ttl}
}

// CatalogKey is the cache key of a playlist.
func CatalogKey(playlistID string) string {
	return "catalog:" + playlistID
}

func (c *CatalogCache) FetchCatalog(ctx context.Context, playlistID string) (*model.Catalog, error) {
	key := CatalogKey(playlistID)

	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var catalog model.Catalog
		if err := json.Unmarshal(data, &catalog); err == nil {
			logger.Debug("catalog cache hit", logger.String("key", key))
			return &catalog, nil
		}
		logger.Warn("catalog cache entry unreadable, refetching", logger.String("key", key))
	case errors.Is(err, ErrMiss):
	default:
		logger.Warn("catalog cache read failed", logger.String("key", key), logger.ErrorField(err))
	}

	catalog, err := c.next.FetchCatalog(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(catalog); err != nil {
		logger.Warn("catalog cache encode failed", logger.String("key", key), logger.ErrorField(err))
	} else if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		logger.Warn("catalog cache write failed", logger.String("key", key), logger.ErrorField(err))
	}
	return catalog, nil
}
