package opaclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/permitio/pdp-sidecar/internal/cache"
)

// CacheControl captures the subset of the client's Cache-Control header
// the cached query layer honors: whether the caller allows a cache read
// and whether the result may be written back. MaxAge, when set, disables
// reads when it is zero (max-age=0 forces a revalidation, same as
// no-cache) without affecting whether the result may still be stored.
type CacheControl struct {
	NoCache bool
	NoStore bool
	MaxAge  *uint32
}

// ShouldRead reports whether a cache lookup is permitted.
func (c CacheControl) ShouldRead() bool {
	return !c.NoCache && !c.NoStore && (c.MaxAge == nil || *c.MaxAge > 0)
}

// ShouldStore reports whether writing the result back is permitted.
func (c CacheControl) ShouldStore() bool { return !c.NoStore }

// CachedClient wraps a Client with a read-through cache keyed by the
// canonical JSON form of each query, one category per cache-key prefix so
// an allowed-single key never collides with a bulk or user-permissions key
// for the same literal payload.
type CachedClient struct {
	client  *Client
	backend cache.Backend
}

func NewCachedClient(client *Client, backend cache.Backend) *CachedClient {
	return &CachedClient{client: client, backend: backend}
}

func cacheKey(category string, payload interface{}) (string, error) {
	canonical, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return category + ":" + hex.EncodeToString(sum[:]), nil
}

// queryCached is the shared read-through path: deterministic key, optional
// read, fallback to the live client, optional best-effort write-back.
func queryCached[T any](ctx context.Context, c *CachedClient, category string, payload interface{}, control CacheControl, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	key, err := cacheKey(category, payload)
	if err != nil {
		return zero, err
	}

	if control.ShouldRead() {
		var cached T
		if err := c.backend.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	result, err := fetch(ctx)
	if err != nil {
		return zero, err
	}

	if control.ShouldStore() {
		_ = c.backend.Set(ctx, key, result)
	}

	return result, nil
}

func (c *CachedClient) QueryAllowed(ctx context.Context, query AllowedQuery, control CacheControl) (AllowedResult, error) {
	return queryCached(ctx, c, "allowed", query, control, func(ctx context.Context) (AllowedResult, error) {
		return c.client.QueryAllowed(ctx, query)
	})
}

func (c *CachedClient) QueryAllowedBulk(ctx context.Context, queries []AllowedQuery, control CacheControl) (BulkAuthorizationResult, error) {
	return queryCached(ctx, c, "allowed_bulk", queries, control, func(ctx context.Context) (BulkAuthorizationResult, error) {
		return c.client.QueryAllowedBulk(ctx, queries)
	})
}

func (c *CachedClient) QueryUserPermissions(ctx context.Context, query UserPermissionsQuery, control CacheControl) (map[string]UserPermissionsResult, error) {
	return queryCached(ctx, c, "user_permissions", query, control, func(ctx context.Context) (map[string]UserPermissionsResult, error) {
		return c.client.QueryUserPermissions(ctx, query)
	})
}

func (c *CachedClient) QueryAuthorizedUsers(ctx context.Context, query AuthorizedUsersQuery, control CacheControl) (AuthorizedUsersResult, error) {
	return queryCached(ctx, c, "authorized_users", query, control, func(ctx context.Context) (AuthorizedUsersResult, error) {
		return c.client.QueryAuthorizedUsers(ctx, query)
	})
}
