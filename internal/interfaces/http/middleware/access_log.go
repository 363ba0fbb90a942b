package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"game-gen-ai-api/pkg/logger"
)

// AccessLog 请求日志中间件，skipPaths 中的路径不记录
func AccessLog(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		logger.Info(c.Request.Context(), "api request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"request_id", c.GetString("request_id"),
			"body_size", c.Writer.Size(),
		)
	}
}

// DefaultSkipPaths 探针与指标路径
var DefaultSkipPaths = []string{
	"/health",
	"/ready",
	"/live",
	"/metrics",
}
