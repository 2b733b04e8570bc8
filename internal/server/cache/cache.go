// Package cache keeps rendered video listings in Redis. Listings are grouped
// into scopes (all videos, videos of one owner); a write invalidates the
// whole scope at once by bumping its version.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/logging"
	"github.com/redis/go-redis/v9"
)

// ListingCache is what the video service needs from a cache. Failures are
// never fatal: a broken cache behaves like an empty one.
type ListingCache interface {
	// Version returns the current generation of scope. Callers read it
	// before loading and put it into the field, so a listing loaded before
	// an Invalidate is never served after it. ok is false when the cache
	// cannot tell, in which case the listing should not be cached.
	Version(ctx context.Context, scope string) (version string, ok bool)
	Get(ctx context.Context, scope, field string) ([]byte, bool)
	Set(ctx context.Context, scope, field string, data []byte)
	Invalidate(ctx context.Context, scopes ...string)
}

const (
	keyPrefix     = "clipshare:listing:"
	versionPrefix = "clipshare:listing-version:"
)

// redisClient is the subset of *redis.Client used by RedisCache.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisCache stores each scope as a hash keyed by page with a TTL on the scope.
type RedisCache struct {
	rdb    redisClient
	ttl    time.Duration
	logger logging.Logger
}

var _ ListingCache = (*RedisCache)(nil)

// NewRedisCache connects to addr and pings it with a short timeout.
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration, logger logging.Logger) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return newRedisCache(rdb, ttl, logger), nil
}

func newRedisCache(rdb redisClient, ttl time.Duration, logger logging.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisCache{rdb: rdb, ttl: ttl, logger: logger.With("module", "cache")}
}

func (c *RedisCache) Version(ctx context.Context, scope string) (string, bool) {
	n, err := c.rdb.Get(ctx, versionPrefix+scope).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "0", true
		}
		c.logger.Warn(ctx, "cache version failed", "scope", scope, "error", err)
		return "", false
	}
	return strconv.FormatInt(n, 10), true
}

func (c *RedisCache) Get(ctx context.Context, scope, field string) ([]byte, bool) {
	b, err := c.rdb.HGet(ctx, keyPrefix+scope, field).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn(ctx, "cache get failed", "scope", scope, "error", err)
		}
		return nil, false
	}
	return b, true
}

func (c *RedisCache) Set(ctx context.Context, scope, field string, data []byte) {
	key := keyPrefix + scope
	if err := c.rdb.HSet(ctx, key, field, data).Err(); err != nil {
		c.logger.Warn(ctx, "cache set failed", "scope", scope, "error", err)
		return
	}
	if err := c.rdb.Expire(ctx, key, c.ttl).Err(); err != nil {
		c.logger.Warn(ctx, "cache expire failed", "scope", scope, "error", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, scopes ...string) {
	if len(scopes) == 0 {
		return
	}
	keys := make([]string, len(scopes))
	for i, s := range scopes {
		if err := c.rdb.Incr(ctx, versionPrefix+s).Err(); err != nil {
			c.logger.Warn(ctx, "cache version bump failed", "scope", s, "error", err)
		}
		keys[i] = keyPrefix + s
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn(ctx, "cache invalidate failed", "scopes", scopes, "error", err)
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// Nop is a ListingCache that stores nothing.
type Nop struct{}

func (Nop) Version(context.Context, string) (string, bool)     { return "", false }
func (Nop) Get(context.Context, string, string) ([]byte, bool) { return nil, false }
func (Nop) Set(context.Context, string, string, []byte)        {}
func (Nop) Invalidate(context.Context, ...string)              {}
