package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/permitio/pdp-sidecar/core"
)

// RedisBackend is the external cache store, grounded on the original's
// redis-rs ConnectionManager usage: a shared pooled client, SET EX for
// writes carrying the configured TTL, and a PING-based health check.
type RedisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBackend parses url (a redis:// URL) and pings the server once to
// fail fast on misconfiguration, matching the original's eager connect.
func NewRedisBackend(ctx context.Context, url string, ttl time.Duration) (*RedisBackend, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, &core.FrameworkError{Op: "cache.redis.new", Kind: "cache", Message: "parse redis url", Err: err}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, &core.FrameworkError{Op: "cache.redis.new", Kind: "cache", Message: "ping redis", Err: core.ErrCacheUnavailable}
	}

	return &RedisBackend{client: client, ttl: ttl}, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value interface{}) error {
	data, err := marshal("cache.redis.set", key, value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return &core.FrameworkError{Op: "cache.redis.set", Kind: "cache", ID: key, Message: "set key", Err: err}
	}
	return nil
}

func (r *RedisBackend) Get(ctx context.Context, key string, dst interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &core.FrameworkError{Op: "cache.redis.get", Kind: "cache", ID: key, Message: "not found", Err: core.ErrCacheMiss}
		}
		return &core.FrameworkError{Op: "cache.redis.get", Kind: "cache", ID: key, Message: "get key", Err: err}
	}
	return unmarshal("cache.redis.get", key, data, dst)
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return &core.FrameworkError{Op: "cache.redis.delete", Kind: "cache", ID: key, Message: "delete key", Err: err}
	}
	return nil
}

func (r *RedisBackend) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return &core.FrameworkError{Op: "cache.redis.health_check", Kind: "cache", Message: "ping redis", Err: core.ErrCacheUnavailable}
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
