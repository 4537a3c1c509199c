package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crimemap/crimemap/internal/metrics"
)

// errCacheMiss is returned by Cache.Get when the key is absent.
var errCacheMiss = errors.New("cache miss")

// Cache is a string key/value store with expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// OpenRedis returns a client for addr, or nil when addr is empty.
func OpenRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

// RedisCache adapts a go-redis client to Cache.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache wraps rdb.
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", errCacheMiss
	}
	return val, err
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Cached memoizes successful lookups of another Geocoder. Cache errors are
// logged and the call passes through to the wrapped geocoder.
type Cached struct {
	next   Geocoder
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps next. A non-positive ttl means 24h.
func NewCached(next Geocoder, cache Cache, ttl time.Duration, logger *slog.Logger) *Cached {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cached{next: next, cache: cache, ttl: ttl, logger: logger}
}

func forwardKey(query string) string {
	return "geo:fwd:" + NormalizeQuery(query)
}

func reverseKey(loc Location) string {
	return fmt.Sprintf("geo:rev:%.4f:%.4f", Round4(loc.Lat), Round4(loc.Lon))
}

// Forward consults the cache before the wrapped geocoder.
func (c *Cached) Forward(ctx context.Context, query string) (Location, error) {
	key := forwardKey(query)
	if raw, ok := c.lookup(ctx, key); ok {
		var loc Location
		if err := json.Unmarshal([]byte(raw), &loc); err == nil {
			return loc, nil
		}
	}

	loc, err := c.next.Forward(ctx, query)
	if err != nil {
		return Location{}, err
	}
	if data, err := json.Marshal(loc); err == nil {
		c.store(ctx, key, string(data))
	}
	return loc, nil
}

// Reverse consults the cache before the wrapped geocoder. Points within the
// same four-decimal cell share an entry.
func (c *Cached) Reverse(ctx context.Context, loc Location) (string, error) {
	key := reverseKey(loc)
	if label, ok := c.lookup(ctx, key); ok {
		return label, nil
	}

	label, err := c.next.Reverse(ctx, loc)
	if err != nil {
		return "", err
	}
	c.store(ctx, key, label)
	return label, nil
}

func (c *Cached) lookup(ctx context.Context, key string) (string, bool) {
	val, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		metrics.GeocodeCacheHitsTotal.Inc()
		return val, true
	case errors.Is(err, errCacheMiss):
		metrics.GeocodeCacheMissesTotal.Inc()
	default:
		metrics.GeocodeCacheMissesTotal.Inc()
		c.logger.Warn("geocode cache read failed", "key", key, "error", err)
	}
	return "", false
}

func (c *Cached) store(ctx context.Context, key, val string) {
	if err := c.cache.Set(ctx, key, val, c.ttl); err != nil {
		c.logger.Warn("geocode cache write failed", "key", key, "error", err)
	}
}
