package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permitio/pdp-sidecar/core"
	"github.com/permitio/pdp-sidecar/internal/cache"
)

type record struct {
	Field string `json:"field"`
}

func TestMemoryBackend_SetGet(t *testing.T) {
	backend, err := cache.NewMemoryBackend(time.Second, 128)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, "test_key", record{Field: "test"}))

	var out record
	require.NoError(t, backend.Get(ctx, "test_key", &out))
	assert.Equal(t, "test", out.Field)
}

func TestMemoryBackend_Expiration(t *testing.T) {
	backend, err := cache.NewMemoryBackend(20*time.Millisecond, 128)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, "test_key", record{Field: "test"}))

	time.Sleep(200 * time.Millisecond)

	var out record
	err = backend.Get(ctx, "test_key", &out)
	assert.True(t, errors.Is(err, core.ErrCacheMiss))
}

func TestMemoryBackend_Delete(t *testing.T) {
	backend, err := cache.NewMemoryBackend(time.Minute, 128)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, "test_key", record{Field: "test"}))
	require.NoError(t, backend.Delete(ctx, "test_key"))
	backend.HealthCheck(ctx)

	var out record
	err = backend.Get(ctx, "test_key", &out)
	assert.True(t, errors.Is(err, core.ErrCacheMiss))
}

func TestMemoryBackend_HealthCheck(t *testing.T) {
	backend, err := cache.NewMemoryBackend(time.Minute, 128)
	require.NoError(t, err)
	defer backend.Close()

	assert.NoError(t, backend.HealthCheck(context.Background()))
}

// An in-memory cache inserted past its byte budget evicts at least one
// earlier entry (spec §8 boundary behavior). ristretto's capacity is
// configured in bytes via NumCounters/MaxCost, so a handful of multi-KB
// values against a tiny MiB budget forces evictions.
func TestMemoryBackend_EvictsUnderByteBudget(t *testing.T) {
	backend, err := cache.NewMemoryBackend(time.Minute, 1)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	big := make([]byte, 200*1024)
	for i := range big {
		big[i] = 'x'
	}

	const numEntries = 20
	for i := 0; i < numEntries; i++ {
		require.NoError(t, backend.Set(ctx, keyFor(i), record{Field: string(big)}))
	}

	missing := 0
	var out record
	for i := 0; i < numEntries; i++ {
		if err := backend.Get(ctx, keyFor(i), &out); errors.Is(err, core.ErrCacheMiss) {
			missing++
		}
	}
	assert.Greater(t, missing, 0, "expected at least one entry evicted under the 1 MiB budget")
}

func keyFor(i int) string {
	return "evict_key_" + string(rune('a'+i))
}

func TestNullBackend(t *testing.T) {
	backend := cache.NewNullBackend()
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "k", record{Field: "x"}))

	var out record
	err := backend.Get(ctx, "k", &out)
	assert.True(t, errors.Is(err, core.ErrCacheMiss))

	require.NoError(t, backend.Delete(ctx, "k"))
	require.NoError(t, backend.HealthCheck(ctx))
}
