// Package ratelimit implements a fixed-window request counter in Redis.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisUnavailable = errors.New("ratelimit: redis unavailable")

type Limiter struct {
	redis  redis.UniversalClient
	prefix string
	limit  int64
	window time.Duration
}

func New(client redis.UniversalClient, prefix string, limit int, window time.Duration) *Limiter {
	return &Limiter{redis: client, prefix: prefix, limit: int64(limit), window: window}
}

// Allow counts one hit for key and reports whether it is still within the window's budget.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.incrementWithTTL(ctx, l.prefix+key)
	if err != nil {
		return false, err
	}
	return count <= l.limit, nil
}

// incrWindowLua counts a hit and gives the key a TTL whenever it has none, so a
// window always closes even if an earlier expire never landed.
//
// KEYS[1] = counter key
// ARGV[1] = window in milliseconds
var incrWindowLua = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

func (l *Limiter) incrementWithTTL(ctx context.Context, key string) (int64, error) {
	count, err := incrWindowLua.Run(ctx, l.redis, []string{key}, l.window.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return count, nil
}
