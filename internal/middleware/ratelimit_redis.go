package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimitStore implements RateLimitStore backed by Redis, so the
// limit is shared across API instances. It uses a fixed window counter:
// INCR on a per-key counter whose TTL is the window duration.
//
// Redis errors fail open: an unreachable Redis must not take the API down
// with it, so requests are allowed and the error is counted via metrics.
type RedisRateLimitStore struct {
	client  *redis.Client
	metrics *Metrics // optional, counts fail-open events
}

// NewRedisRateLimitStore creates a Redis-backed rate limit store.
func NewRedisRateLimitStore(client *redis.Client) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client}
}

// WithMetrics attaches middleware metrics for fail-open accounting.
func (s *RedisRateLimitStore) WithMetrics(m *Metrics) *RedisRateLimitStore {
	s.metrics = m
	return s
}

// Allow checks if a request from the given key should be allowed.
// Implements the RateLimitStore interface.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int) {
	redisKey := "ratelimit:" + key

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		s.failOpen(ctx, err)
		return true, 0
	}

	// First hit in a window starts the clock.
	if count == 1 {
		if err := s.client.Expire(ctx, redisKey, config.WindowDuration).Err(); err != nil {
			s.failOpen(ctx, err)
			return true, 0
		}
	}

	if count <= int64(config.RequestsPerWindow) {
		return true, 0
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		return false, 1
	}
	retryAfter := int(ttl / time.Second)
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return false, retryAfter
}

func (s *RedisRateLimitStore) failOpen(ctx context.Context, err error) {
	if s.metrics != nil {
		s.metrics.IncRateLimitRedisErrors()
	}
	slog.WarnContext(ctx, "rate limit store unavailable, failing open", "error", err)
}
