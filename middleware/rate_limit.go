package middleware

import (
	"context"
	"fmt"
	"time"

	"geotrack/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Redis     *redis.Client
	Requests  int           // Number of requests allowed
	Window    time.Duration // Time window
	KeyPrefix string        // Redis key prefix
	SkipPaths []string      // Paths to skip rate limiting
}

// RateLimiter provides Redis-backed request rate limiting keyed by the
// calling device (X-Device-ID header) or client IP.
type RateLimiter struct {
	config RateLimitConfig
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "rate_limit"
	}
	if config.Requests <= 0 {
		config.Requests = 100
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}

	return &RateLimiter{config: config}
}

// Middleware returns the rate limiting middleware
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		if rl.shouldSkipPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		key := rl.getKey(c)

		allowed, err := rl.checkRateLimit(c.Request.Context(), key)
		if err != nil {
			logrus.Errorf("Rate limit check failed: %v", err)
			// Allow request to proceed on error
			c.Next()
			return
		}

		if !allowed {
			utils.RateLimitResponse(c, "Rate limit exceeded")
			c.Abort()
			return
		}

		c.Next()
	})
}

// checkRateLimit applies a sliding window over a Redis sorted set.
func (rl *RateLimiter) checkRateLimit(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	window := rl.config.Window

	pipe := rl.config.Redis.Pipeline()

	expiredBefore := now.Add(-window).UnixNano()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", expiredBefore))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, &redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	pipe.Expire(ctx, key, window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return countCmd.Val() < int64(rl.config.Requests), nil
}

func (rl *RateLimiter) getKey(c *gin.Context) string {
	if deviceID := c.GetHeader("X-Device-ID"); deviceID != "" {
		return fmt.Sprintf("%s:device:%s", rl.config.KeyPrefix, deviceID)
	}
	return fmt.Sprintf("%s:ip:%s", rl.config.KeyPrefix, c.ClientIP())
}

func (rl *RateLimiter) shouldSkipPath(path string) bool {
	for _, skip := range rl.config.SkipPaths {
		if path == skip {
			return true
		}
	}
	return false
}
