package cache

import (
	"context"

	"github.com/permitio/pdp-sidecar/core"
)

// NullBackend implements Backend by doing nothing: set and delete succeed
// trivially, get always reports a miss, health check always passes. Used
// when PDP_CACHE_STORE=none but callers still need a uniform Backend.
type NullBackend struct{}

func NewNullBackend() *NullBackend { return &NullBackend{} }

func (NullBackend) Set(ctx context.Context, key string, value interface{}) error { return nil }

func (NullBackend) Get(ctx context.Context, key string, dst interface{}) error {
	return &core.FrameworkError{Op: "cache.null.get", Kind: "cache", ID: key, Message: "not found", Err: core.ErrCacheMiss}
}

func (NullBackend) Delete(ctx context.Context, key string) error { return nil }

func (NullBackend) HealthCheck(ctx context.Context) error { return nil }
