// Package kvstore is the expiring key-value store shared by the rate limiter
// and the access-token blacklist.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is an expiring counter/flag store. A missing or expired key reads
// as zero (or absent).
type Store interface {
	// Incr atomically increments key and returns the new count together
	// with the time left until the key expires. The expiry is set to ttl
	// on the first increment of a window.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error)
	// SetFlag marks key as present for ttl.
	SetFlag(ctx context.Context, key string, ttl time.Duration) error
	// Exists reports whether key is present and not expired.
	Exists(ctx context.Context, key string) (bool, error)
}

// ErrUnexpectedReply is returned when the counter script answers with a shape
// it never produces under a healthy server.
var ErrUnexpectedReply = errors.New("kvstore: unexpected script reply")

// incrScript increments and arms the window in one round-trip. A key left
// without a TTL (ttl < 0) is re-armed so it can never count forever.
var incrScript = redis.NewScript(`
	local n = redis.call('INCR', KEYS[1])
	local ttl = redis.call('PTTL', KEYS[1])
	if n == 1 or ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return { n, ttl }
`)

// RedisStore implements Store on go-redis.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps a connected client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	ms := ttl.Milliseconds()
	if ms <= 0 {
		ms = 1
	}
	vals, err := incrScript.Run(ctx, s.rdb, []string{key}, ms).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("incr %s: %w", key, err)
	}
	arr, ok := vals.([]interface{})
	if !ok || len(arr) != 2 {
		return 0, 0, ErrUnexpectedReply
	}
	return asInt64(arr[0]), time.Duration(asInt64(arr[1])) * time.Millisecond, nil
}

func (s *RedisStore) SetFlag(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, key, "1", ttl).Err()
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
