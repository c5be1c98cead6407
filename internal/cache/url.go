package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/urlshortcut/urlshortcut/internal/model"
)

// Cache key prefixes and TTLs.
const (
	urlKeyPrefix      = "url:"
	negCacheKeySuffix = ":neg"

	// DefaultURLTTL is the TTL for cached redirect data.
	DefaultURLTTL = 24 * time.Hour

	// NegativeCacheTTL is the TTL for negative cache entries.
	NegativeCacheTTL = 5 * time.Minute
)

// ErrCacheMiss is returned when the id is not cached.
var ErrCacheMiss = errors.New("cache miss")

func urlKey(id string) string {
	return urlKeyPrefix + id
}

func negKey(id string) string {
	return urlKeyPrefix + id + negCacheKeySuffix
}

// cacheTTL bounds the cache lifetime by the entry's own expiry so a
// cached redirect never outlives the entry. A non-positive result means
// the entry must not be cached.
func cacheTTL(u *model.ShortURL, now time.Time) time.Duration {
	ttl := DefaultURLTTL
	if u.ExpiresAt != nil {
		until := u.ExpiresAt.Sub(now)
		if until < ttl {
			ttl = until
		}
	}
	return ttl
}

// GetURL retrieves redirect data by URL id.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetURL(ctx context.Context, id string) (*model.ShortURL, error) {
	result, err := c.client.HGetAll(ctx, urlKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	cached := &model.CachedURL{
		Target:    result["target"],
		Host:      result["host"],
		ExpiresAt: result["expires_at"],
	}
	return cached.ToShortURL(id), nil
}

// setURLScript writes a redirect hash unless the id carries a negative
// entry. A lookup that read the store before a delete must not restore
// the entry the delete evicted.
//
// KEYS[1] = url key, KEYS[2] = negative key
// ARGV[1] = ttl in milliseconds, ARGV[2..] = hash field/value pairs
// Returns 1 when written, 0 when skipped.
var setURLScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[2]) == 1 then
	return 0
end
redis.call("DEL", KEYS[1])
redis.call("HSET", KEYS[1], unpack(ARGV, 2))
redis.call("PEXPIRE", KEYS[1], ARGV[1])
return 1
`)

// SetURL stores redirect data. It is a no-op while the id is negatively
// cached, which includes the tombstone DeleteURL leaves behind.
func (c *Cache) SetURL(ctx context.Context, u *model.ShortURL) error {
	key := urlKey(u.ID)

	ttl := cacheTTL(u, time.Now())
	if ttl <= 0 {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to drop expired url: %w", err)
		}
		return nil
	}

	cached := u.ToCachedURL()
	args := []any{ttl.Milliseconds(), "target", cached.Target, "host", cached.Host}
	if cached.ExpiresAt != "" {
		args = append(args, "expires_at", cached.ExpiresAt)
	}

	if err := setURLScript.Run(ctx, c.client, []string{key, negKey(u.ID)}, args...).Err(); err != nil {
		return fmt.Errorf("failed to cache url: %w", err)
	}
	return nil
}

// DeleteURL evicts cached redirect data for the given ids and leaves a
// negative entry for each, so an in-flight backfill cannot re-cache them.
func (c *Cache) DeleteURL(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, urlKey(id))
	}

	pipe := c.client.TxPipeline()
	for _, id := range ids {
		pipe.SetEx(ctx, negKey(id), "", NegativeCacheTTL)
	}
	pipe.Del(ctx, keys...)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete url from cache: %w", err)
	}
	return nil
}

// IsNegativelyCached checks if an id is known not to exist.
func (c *Cache) IsNegativelyCached(ctx context.Context, id string) (bool, error) {
	exists, err := c.client.Exists(ctx, negKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}
	return exists > 0, nil
}

// SetNegativeCache marks an id as not found.
func (c *Cache) SetNegativeCache(ctx context.Context, id string) error {
	if err := c.client.SetEx(ctx, negKey(id), "", NegativeCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}
	return nil
}
