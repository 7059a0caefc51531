package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// checkScript runs the fixed-window rule server side so concurrent
// instances share one counter per key. A rejected call leaves the count as is.
//
// KEYS[1] key, ARGV[1] limit, ARGV[2] window in ms.
// Returns {allowed, count, ttl_ms}.
var checkScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
local window = tonumber(ARGV[2])
if count == 0 then
  redis.call('SET', KEYS[1], 1, 'PX', window)
  return {1, 1, window}
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], window)
  ttl = window
end
if count >= tonumber(ARGV[1]) then
  return {0, count, ttl}
end
count = redis.call('INCR', KEYS[1])
return {1, count, ttl}
`)

// RedisStore keeps counters in Redis. Expiry is delegated to key TTLs,
// so it has no sweep task of its own.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore wraps an existing client. The store owns it and closes it on Close.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "launchit:ratelimit:",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DialRedis connects to addr and verifies the connection with PING.
func DialRedis(ctx context.Context, addr string, opts ...RedisOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrStoreUnavailable, addr, err)
	}
	return NewRedisStore(client, opts...), nil
}

// Check implements Store.
func (s *RedisStore) Check(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := s.now()
	res, err := checkScript.Run(ctx, s.client, []string{s.prefix + key}, limit, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("%w: unexpected script reply %v", ErrStoreUnavailable, res)
	}

	allowed := res[0] == 1
	count := int(res[1])
	resetAt := now.Add(time.Duration(res[2]) * time.Millisecond)

	remaining := limit - count
	if !allowed || remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: allowed, Limit: limit, Remaining: remaining, ResetAt: resetAt}, nil
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
