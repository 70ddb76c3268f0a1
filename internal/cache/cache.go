// Package cache implements the uniform cache plane fronted by the policy
// client's cached query layer: set/get/delete/health_check over either an
// in-process TTL store, Redis, or a no-op null backend, selected by
// PDP_CACHE_STORE at startup.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/permitio/pdp-sidecar/core"
)

// Backend is the cache plane every store in this package implements.
// Values are opaque JSON payloads: Set marshals v, Get unmarshals into the
// pointer dst points to. Get returns core.ErrCacheMiss (wrapped) when the
// key is absent or expired, never a zero value.
type Backend interface {
	Set(ctx context.Context, key string, value interface{}) error
	Get(ctx context.Context, key string, dst interface{}) error
	Delete(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) error
}

func marshal(op, key string, value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, &core.FrameworkError{Op: op, Kind: "cache", ID: key, Message: "marshal value", Err: err}
	}
	return data, nil
}

func unmarshal(op, key string, data []byte, dst interface{}) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return &core.FrameworkError{Op: op, Kind: "cache", ID: key, Message: "unmarshal value", Err: fmt.Errorf("%w: %v", core.ErrCacheDeserialize, err)}
	}
	return nil
}
