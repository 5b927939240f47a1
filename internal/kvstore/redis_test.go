package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb), mr
}

func TestIncrArmsWindowOnFirstHit(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	n, ttl, err := s.Incr(ctx, "rl:login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, time.Minute, ttl)

	mr.FastForward(20 * time.Second)
	n, ttl, err = s.Incr(ctx, "rl:login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.LessOrEqual(t, ttl, 40*time.Second)

	mr.FastForward(41 * time.Second)
	n, _, err = s.Incr(ctx, "rl:login:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "expired window starts from zero")
}

func TestIncrRearmsKeyWithoutTTL(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set("rl:api:9.9.9.9", "7"))

	n, ttl, err := s.Incr(context.Background(), "rl:api:9.9.9.9", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, time.Minute, ttl)
	assert.True(t, mr.TTL("rl:api:9.9.9.9") > 0)
}

func TestFlags(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "blacklist:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetFlag(ctx, "blacklist:abc", 10*time.Second))
	ok, err = s.Exists(ctx, "blacklist:abc")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(11 * time.Second)
	ok, err = s.Exists(ctx, "blacklist:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetFlag(ctx, "blacklist:zero", 0))
	ok, _ = s.Exists(ctx, "blacklist:zero")
	assert.False(t, ok)
}

func TestIncrRedisDown(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()
	_, _, err := s.Incr(context.Background(), "rl:x:y", time.Second)
	assert.Error(t, err)
}
