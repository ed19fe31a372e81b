package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// checkAndIncrement admits a hit only while the counter is below the limit.
// KEYS[1] counter key, ARGV[1] limit, ARGV[2] window in seconds.
var checkAndIncrement = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= tonumber(ARGV[1]) then
	return 0
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[2])
end
return 1
`)

// RateLimitRepository keeps fixed-window hit counters in Redis.
type RateLimitRepository struct {
	client redis.UniversalClient
}

// NewRateLimitRepository constructs the repository.
func NewRateLimitRepository(client redis.UniversalClient) *RateLimitRepository {
	return &RateLimitRepository{client: client}
}

// CheckAndIncrement atomically counts one hit against key and reports whether it was admitted.
// Rejected hits do not extend or increment the window.
func (r *RateLimitRepository) CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r == nil || r.client == nil {
		return false, fmt.Errorf("rate limit store not configured")
	}
	seconds := int64(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	allowed, err := checkAndIncrement.Run(ctx, r.client, []string{key}, limit, seconds).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check: %w", err)
	}
	return allowed == 1, nil
}
