package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/Baaaki/yamdb/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiterConfig defines rate limiting rules
type RateLimiterConfig struct {
	MaxRequests int           // Maximum requests allowed in the window
	Window      time.Duration // Time window (e.g., 1 minute)
}

// Limiter decides whether the caller identified by key may proceed. When it
// may not, retryAfter says how long to wait.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RateLimit throttles by client IP. Limiter errors fail open.
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), clientIP)
		if err != nil {
			logger.Log.Warn("Rate limiter unavailable, letting request through",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", seconds))
			abort(c, http.StatusTooManyRequests, "throttled",
				fmt.Sprintf("Too many requests. Retry in %d seconds.", seconds))
			return
		}

		c.Next()
	}
}

// RedisLimiter is a fixed-window counter shared by every server instance.
type RedisLimiter struct {
	redis  *redis.Client
	config RateLimiterConfig
}

func NewRedisLimiter(redisClient *redis.Client, config RateLimiterConfig) *RedisLimiter {
	return &RedisLimiter{
		redis:  redisClient,
		config: config,
	}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := rl.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, err
	}

	// The first hit of a window starts its expiry.
	if count == 1 {
		if err := rl.redis.Expire(ctx, redisKey, rl.config.Window).Err(); err != nil {
			return false, 0, err
		}
	}

	if count > int64(rl.config.MaxRequests) {
		ttl, err := rl.redis.TTL(ctx, redisKey).Result()
		if err != nil || ttl <= 0 {
			ttl = rl.config.Window
		}
		return false, ttl, nil
	}

	return true, 0, nil
}

// LocalLimiter keeps a token bucket per key in process memory. It refills at
// MaxRequests per Window and allows bursts of MaxRequests.
type LocalLimiter struct {
	mu       sync.Mutex
	config   RateLimiterConfig
	limit    rate.Limit
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// idle visitors are dropped once the map holds this many keys
const localLimiterSweepAt = 10000

func NewLocalLimiter(config RateLimiterConfig) *LocalLimiter {
	return &LocalLimiter{
		config:   config,
		limit:    rate.Limit(float64(config.MaxRequests) / config.Window.Seconds()),
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.visitors) >= localLimiterSweepAt {
		l.sweep(now)
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.config.MaxRequests)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	reservation := v.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, l.config.Window, nil
	}
	delay := reservation.DelayFrom(now)
	if delay == 0 {
		return true, 0, nil
	}
	reservation.CancelAt(now)
	return false, delay, nil
}

func (l *LocalLimiter) sweep(now time.Time) {
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.config.Window {
			delete(l.visitors, key)
		}
	}
}
