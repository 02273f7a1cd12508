package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenBucket is a Redis-backed per-user, per-action rate limiter. View and
// repost endpoints sit behind it so a misbehaving client cannot turn a
// failed view record into a retry storm.
type TokenBucket struct {
	redis    *redis.Client
	capacity int64
	refill   int64 // tokens refilled per window
	window   time.Duration
}

func NewTokenBucket(redisClient *redis.Client, capacity, refillRate int64) *TokenBucket {
	return &TokenBucket{
		redis:    redisClient,
		capacity: capacity,
		refill:   refillRate,
		window:   time.Minute,
	}
}

// refillScript computes the refilled token count for a bucket. consume=1
// additionally takes a token when one is available and persists the state.
const refillScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local refill_rate = tonumber(ARGV[2])
	local window = tonumber(ARGV[3])
	local now = tonumber(ARGV[4])
	local consume = tonumber(ARGV[5])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local tokens = tonumber(bucket[1]) or capacity
	local last_refill = tonumber(bucket[2]) or now

	local time_passed = now - last_refill
	local tokens_to_add = math.floor((time_passed / window) * refill_rate)

	if tokens_to_add > 0 then
		tokens = math.min(capacity, tokens + tokens_to_add)
		last_refill = now
	end

	if consume == 0 then
		return tokens
	end

	local allowed = 0
	if tokens > 0 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
	redis.call('EXPIRE', key, window * 2)
	return allowed
`

func (tb *TokenBucket) key(userID, action string) string {
	return fmt.Sprintf("rate_limit:%s:%s", userID, action)
}

func (tb *TokenBucket) eval(ctx context.Context, userID, action string, consume int) (int64, error) {
	result, err := tb.redis.Eval(ctx, refillScript, []string{tb.key(userID, action)},
		tb.capacity, tb.refill, int64(tb.window.Seconds()), time.Now().Unix(), consume).Result()
	if err != nil {
		return 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	n, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected result type from rate limit script")
	}
	return n, nil
}

// Allow reports whether the user may perform the action, consuming a token
// when one is available.
func (tb *TokenBucket) Allow(ctx context.Context, userID, action string) (bool, error) {
	allowed, err := tb.eval(ctx, userID, action, 1)
	if err != nil {
		return false, err
	}
	return allowed == 1, nil
}

// GetRemaining returns the number of tokens currently available.
func (tb *TokenBucket) GetRemaining(ctx context.Context, userID, action string) (int64, error) {
	return tb.eval(ctx, userID, action, 0)
}

// Reset clears the bucket for a user action.
func (tb *TokenBucket) Reset(ctx context.Context, userID, action string) error {
	return tb.redis.Del(ctx, tb.key(userID, action)).Err()
}
