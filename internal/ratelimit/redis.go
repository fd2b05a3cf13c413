package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"bmasia/internal/metrics"
)

// Redis is a fixed-window limiter whose counters live in redis, so every
// instance behind a load balancer shares the same window per client.
type Redis struct {
	client redis.Cmdable
	window time.Duration
	max    int
	prefix string
}

// NewRedis creates a redis-backed limiter
func NewRedis(client redis.Cmdable, window time.Duration, max int) *Redis {
	return &Redis{
		client: client,
		window: window,
		max:    max,
		prefix: "ratelimit:forms:",
	}
}

// Check counts one attempt for key. Redis errors fail open.
func (r *Redis) Check(ctx context.Context, key string) Decision {
	k := r.prefix + key

	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		log.Printf("[RATELIMIT] Warning: redis unavailable, allowing request for %s: %v", key, err)
		metrics.RecordRateLimiterError()
		return Decision{Remaining: r.max, ResetIn: r.window}
	}
	if count == 1 {
		if err := r.client.PExpire(ctx, k, r.window).Err(); err != nil {
			log.Printf("[RATELIMIT] Warning: failed to set window expiry for %s: %v", key, err)
		}
	}

	resetIn, err := r.client.PTTL(ctx, k).Result()
	if err != nil || resetIn < 0 {
		// A counter without expiry would never reset; restart its window.
		if err == nil {
			_ = r.client.PExpire(ctx, k, r.window).Err()
		}
		resetIn = r.window
	}

	if int(count) > r.max {
		return Decision{Limited: true, Remaining: 0, ResetIn: resetIn}
	}
	return Decision{Remaining: r.max - int(count), ResetIn: resetIn}
}
