package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/logging"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type fakeRedis struct {
	mu      sync.Mutex
	hashes  map[string]map[string]string
	counts  map[string]int64
	ttls    map[string]time.Duration
	failAll error
	closed  bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{hashes: map[string]map[string]string{}, counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewStringResult("", f.failAll)
	}
	n, ok := f.counts[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(strconv.FormatInt(n, 10), nil)
}

func (f *fakeRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewIntResult(0, f.failAll)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeRedis) HGet(ctx context.Context, key, field string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewStringResult("", f.failAll)
	}
	v, ok := f.hashes[key][field]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) HSet(ctx context.Context, key string, values ...any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewIntResult(0, f.failAll)
	}
	h, ok := f.hashes[key]
	if !ok {
		h = map[string]string{}
		f.hashes[key] = h
	}
	for i := 0; i+1 < len(values); i += 2 {
		h[values[i].(string)] = string(values[i+1].([]byte))
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func (f *fakeRedis) Expire(ctx context.Context, key string, d time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls[key] = d
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return redis.NewIntResult(0, f.failAll)
	}
	for _, k := range keys {
		delete(f.hashes, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.failAll)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisCache_SetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	c := newRedisCache(rdb, time.Minute, logging.Nop{})

	_, ok := c.Get(ctx, "all", "50:0")
	assert.False(t, ok)

	c.Set(ctx, "all", "50:0", []byte(`[1]`))
	c.Set(ctx, "owner:u1", "50:0", []byte(`[2]`))

	b, ok := c.Get(ctx, "all", "50:0")
	assert.True(t, ok)
	assert.Equal(t, `[1]`, string(b))
	assert.Equal(t, time.Minute, rdb.ttls[keyPrefix+"all"])

	c.Invalidate(ctx, "all")
	_, ok = c.Get(ctx, "all", "50:0")
	assert.False(t, ok)

	_, ok = c.Get(ctx, "owner:u1", "50:0")
	assert.True(t, ok, "other scopes survive")

	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
	assert.True(t, rdb.closed)
}

func TestRedisCache_VersionBumpsOnInvalidate(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	c := newRedisCache(rdb, time.Minute, logging.Nop{})

	v, ok := c.Version(ctx, "all")
	assert.True(t, ok)
	assert.Equal(t, "0", v)

	c.Invalidate(ctx, "all", "owner:u1")

	v, ok = c.Version(ctx, "all")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
	v, _ = c.Version(ctx, "owner:u1")
	assert.Equal(t, "1", v)
	v, _ = c.Version(ctx, "owner:u2")
	assert.Equal(t, "0", v)

	// a listing loaded before the invalidation lands under the old version
	c.Set(ctx, "all", "0/50:0", []byte(`[stale]`))
	_, ok = c.Get(ctx, "all", "1/50:0")
	assert.False(t, ok)
}

func TestRedisCache_FailuresAreMisses(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	rdb.failAll = errors.New("connection refused")
	c := newRedisCache(rdb, 0, logging.Nop{})

	assert.Equal(t, 30*time.Second, c.ttl)
	assert.NotPanics(t, func() {
		c.Set(ctx, "all", "f", []byte("x"))
		c.Invalidate(ctx, "all")
		c.Invalidate(ctx)
	})
	_, ok := c.Get(ctx, "all", "f")
	assert.False(t, ok)
	_, ok = c.Version(ctx, "all")
	assert.False(t, ok)
	assert.Error(t, c.Ping(ctx))
}

func TestNop(t *testing.T) {
	var c ListingCache = Nop{}
	_, ok := c.Version(context.Background(), "s")
	assert.False(t, ok)
	c.Set(context.Background(), "s", "f", []byte("x"))
	_, ok = c.Get(context.Background(), "s", "f")
	assert.False(t, ok)
	c.Invalidate(context.Background(), "s")
}
