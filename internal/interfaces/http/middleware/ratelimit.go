package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"game-gen-ai-api/internal/interfaces/http/dto"
	"game-gen-ai-api/pkg/errors"
	"game-gen-ai-api/pkg/logger"
	"game-gen-ai-api/pkg/metrics"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerWindow int
	Window            time.Duration
}

// RateLimiter 限流器接口，返回是否放行与剩余配额
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)
}

// KeyFunc 由请求构建限流键
type KeyFunc func(clientID, endpoint string) string

// RateLimit 按客户端 IP 与路由限流
func RateLimit(cfg RateLimitConfig, limiter RateLimiter, keyFn KeyFunc) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if cfg.RequestsPerWindow <= 0 {
		cfg.RequestsPerWindow = 20
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if keyFn == nil {
		keyFn = func(clientID, endpoint string) string {
			return "ratelimit:" + clientID + ":" + endpoint
		}
	}
	limit := strconv.Itoa(cfg.RequestsPerWindow)
	retryAfter := strconv.Itoa(int(cfg.Window.Seconds()))

	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		key := keyFn(c.ClientIP(), endpoint)

		allowed, remaining, err := limiter.Allow(c.Request.Context(), key, cfg.RequestsPerWindow, cfg.Window)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !allowed {
			c.Header("Retry-After", retryAfter)
			metrics.RateLimitRejectedTotal.WithLabelValues(endpoint).Inc()
			dto.Fail(c, errors.ErrTooManyRequests.WithDetail("rate limit exceeded, retry after "+retryAfter+"s"))
			c.Abort()
			return
		}

		c.Next()
	}
}
