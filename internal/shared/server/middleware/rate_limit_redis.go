package middleware

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"cv-builder/internal/shared/telemetry"
)

const redisKeyPrefix = "ratelimit:"

// RedisLimiter is a fixed-window limiter shared by every API instance. The
// window length is the time a full bucket takes to refill. Redis failures
// let the request through.
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

// NewRedisLimiterFromURL parses a redis:// URL and pings the server.
func NewRedisLimiterFromURL(ctx context.Context, rawURL string) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisLimiter(client), nil
}

func (l *RedisLimiter) Close() error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Close()
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, rule RateLimitRule) (bool, time.Duration) {
	if l == nil || l.client == nil {
		return true, 0
	}
	if rule.Rate <= 0 || rule.Burst <= 0 {
		return true, 0
	}
	window := time.Duration(math.Ceil(float64(rule.Burst)/rule.Rate*1000.0)) * time.Millisecond
	redisKey := redisKeyPrefix + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.logFailure(key, err)
		return true, 0
	}
	if count == 1 {
		if err := l.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			l.logFailure(key, err)
		}
	}
	if count <= int64(rule.Burst) {
		return true, 0
	}

	retryAfter, err := l.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return false, window
	}
	if retryAfter < 0 {
		// Counter without expiry; reset the window so the key cannot block forever.
		if err := l.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			l.logFailure(key, err)
		}
		return false, window
	}
	if retryAfter == 0 {
		retryAfter = window
	}
	return false, retryAfter
}

func (l *RedisLimiter) logFailure(key string, err error) {
	telemetry.Warn("ratelimit.redis_error", map[string]any{
		"key":   key,
		"error": err,
	})
}
