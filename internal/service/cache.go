package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"invoice-dashboard/internal/clients"
	"invoice-dashboard/internal/logger"
)

const cacheVersionKey = "dashboard:version"

// Cache stores data-access snapshots in redis under versioned keys.
// Bumping the version orphans every previously written key.
type Cache struct {
	redis   *clients.RedisClient
	ttl     time.Duration
	metrics Metrics
	group   singleflight.Group
}

func NewCache(redis *clients.RedisClient, ttl time.Duration, metrics Metrics) *Cache {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Cache{redis: redis, ttl: ttl, metrics: metrics}
}

// Version returns the current cache version; 0 until the first bump.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	raw, err := c.redis.Get(ctx, cacheVersionKey)
	if clients.IsMiss(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	ver, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cache: bad version %q: %w", raw, err)
	}
	return ver, nil
}

// Key composes dashboard:<name>:v<version>.
func (c *Cache) Key(ctx context.Context, name string) (string, error) {
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("dashboard:%s:v%d", name, ver), nil
}

// FetchJSON fills dest from the cached entry for name, or from loader on a miss.
// Concurrent misses for the same key share one loader call. Redis failures
// degrade to calling loader; loader errors are returned and never cached.
func (c *Cache) FetchJSON(ctx context.Context, name string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.redis == nil {
		return load(ctx, dest, loader)
	}
	l := logger.WithComponent("cache")

	key, err := c.Key(ctx, name)
	if err != nil {
		l.Warn().Err(err).Str("name", name).Msg("cache version unavailable, loading directly")
		c.metrics.CacheResult(name, "error")
		return load(ctx, dest, loader)
	}

	payload, err := c.redis.Get(ctx, key)
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal([]byte(payload), dest); jsonErr == nil {
			c.metrics.CacheResult(name, "hit")
			return nil
		}
		l.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case clients.IsMiss(err):
	default:
		l.Warn().Err(err).Str("key", key).Msg("cache read failed, loading directly")
		c.metrics.CacheResult(name, "error")
		return load(ctx, dest, loader)
	}
	c.metrics.CacheResult(name, "miss")

	raw, err, _ := c.group.Do(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.redis.Set(ctx, key, raw, c.ttl); err != nil {
			l.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
		return raw, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

// Bump invalidates every cached snapshot.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.redis == nil {
		return nil
	}
	_, err := c.redis.Incr(ctx, cacheVersionKey)
	return err
}

func load(ctx context.Context, dest any, loader func(context.Context) (any, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
