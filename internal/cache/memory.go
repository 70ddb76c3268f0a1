package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/permitio/pdp-sidecar/core"
)

// MemoryBackend is the in-process cache store: a cost-aware, TTL-bounded
// cache whose entry cost is the serialized JSON byte length, mirroring the original's
// moka cache (time_to_live + a byte-length weigher capped at a MiB budget).
type MemoryBackend struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

// NewMemoryBackend builds a MemoryBackend with the given entry TTL and
// approximate byte-capacity budget.
func NewMemoryBackend(ttl time.Duration, capacityMiB int) (*MemoryBackend, error) {
	maxCost := int64(capacityMiB) * 1024 * 1024
	if maxCost <= 0 {
		maxCost = 64 * 1024 * 1024
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxCost / 100, // ~100 bytes/entry admission-sketch sizing, ristretto's own recommendation
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, &core.FrameworkError{Op: "cache.memory.new", Kind: "cache", Message: "build in-memory store", Err: err}
	}

	return &MemoryBackend{cache: c, ttl: ttl}, nil
}

func (m *MemoryBackend) Set(ctx context.Context, key string, value interface{}) error {
	data, err := marshal("cache.memory.set", key, value)
	if err != nil {
		return err
	}
	m.cache.SetWithTTL(key, data, int64(len(data)), m.ttl)
	m.cache.Wait()
	return nil
}

func (m *MemoryBackend) Get(ctx context.Context, key string, dst interface{}) error {
	raw, ok := m.cache.Get(key)
	if !ok {
		return &core.FrameworkError{Op: "cache.memory.get", Kind: "cache", ID: key, Message: "not found", Err: core.ErrCacheMiss}
	}
	data, ok := raw.([]byte)
	if !ok {
		return &core.FrameworkError{Op: "cache.memory.get", Kind: "cache", ID: key, Message: "corrupt entry", Err: core.ErrCacheDeserialize}
	}
	return unmarshal("cache.memory.get", key, data, dst)
}

func (m *MemoryBackend) Delete(ctx context.Context, key string) error {
	m.cache.Del(key)
	return nil
}

// HealthCheck always succeeds: there is nothing external to fail.
func (m *MemoryBackend) HealthCheck(ctx context.Context) error {
	return nil
}

// Close releases the cache's background goroutines.
func (m *MemoryBackend) Close() {
	m.cache.Close()
}
