package views

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// Cache stores serialized values with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachingStats wraps another StatsSource with a TTL-based cache.
type CachingStats struct {
	base  StatsSource
	cache Cache
	ttl   time.Duration
}

// NewCachingStats returns a StatsSource that caches totals for ttl.
func NewCachingStats(base StatsSource, cache Cache, ttl time.Duration) *CachingStats {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachingStats{base: base, cache: cache, ttl: ttl}
}

// ChannelStats returns cached totals when available, otherwise it delegates to
// the underlying source and stores the result. Cache failures fall through to
// the source.
func (c *CachingStats) ChannelStats(ctx context.Context, userID string) (models.ChannelStats, error) {
	key := "vidtube:stats:" + userID
	logger := logging.FromContext(ctx)

	if raw, ok, err := c.cache.Get(ctx, key); err != nil {
		logger.Warn("stats cache read failed", slog.String("error", err.Error()))
	} else if ok {
		var stats models.ChannelStats
		if err := json.Unmarshal(raw, &stats); err == nil {
			return stats, nil
		}
	}

	stats, err := c.base.ChannelStats(ctx, userID)
	if err != nil {
		return models.ChannelStats{}, err
	}

	raw, err := json.Marshal(stats)
	if err == nil {
		err = c.cache.Set(ctx, key, raw, c.ttl)
	}
	if err != nil {
		logger.Warn("stats cache write failed", slog.String("error", err.Error()))
	}
	return stats, nil
}

type cacheEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
	now   func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]cacheEntry), now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || !m.now().Before(entry.expires) {
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.items[key] = cacheEntry{value: value, expires: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}
