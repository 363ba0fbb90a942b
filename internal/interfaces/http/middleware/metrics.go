package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"game-gen-ai-api/pkg/metrics"
)

// Metrics Prometheus 指标采集中间件，未匹配路由记为 unmatched
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		if reqSize := c.Request.ContentLength; reqSize > 0 {
			metrics.HTTPRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if respSize := c.Writer.Size(); respSize > 0 {
			metrics.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
		}
	}
}
