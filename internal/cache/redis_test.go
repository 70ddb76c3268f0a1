package cache_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permitio/pdp-sidecar/core"
	"github.com/permitio/pdp-sidecar/internal/cache"
)

// requires a reachable Redis; set PDP_TEST_REDIS_URL to opt in, mirroring
// the original suite's #[ignore]-by-default Redis integration tests.
func redisTestURL(t *testing.T) string {
	url := os.Getenv("PDP_TEST_REDIS_URL")
	if url == "" {
		t.Skip("PDP_TEST_REDIS_URL not set, skipping redis integration test")
	}
	return url
}

func TestRedisBackend_SetGet(t *testing.T) {
	url := redisTestURL(t)
	ctx := context.Background()

	backend, err := cache.NewRedisBackend(ctx, url, time.Minute)
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.Set(ctx, "pdp_test_key", record{Field: "test"}))

	var out record
	require.NoError(t, backend.Get(ctx, "pdp_test_key", &out))
	assert.Equal(t, "test", out.Field)

	require.NoError(t, backend.Delete(ctx, "pdp_test_key"))
}

func TestRedisBackend_Miss(t *testing.T) {
	url := redisTestURL(t)
	ctx := context.Background()

	backend, err := cache.NewRedisBackend(ctx, url, time.Minute)
	require.NoError(t, err)
	defer backend.Close()

	var out record
	err = backend.Get(ctx, "pdp_test_missing_key", &out)
	assert.True(t, errors.Is(err, core.ErrCacheMiss))
}

func TestRedisBackend_HealthCheck(t *testing.T) {
	url := redisTestURL(t)
	ctx := context.Background()

	backend, err := cache.NewRedisBackend(ctx, url, time.Minute)
	require.NoError(t, err)
	defer backend.Close()

	assert.NoError(t, backend.HealthCheck(ctx))
}
