package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"game-gen-ai-api/pkg/errors"
	"game-gen-ai-api/pkg/logger"
)

// Recovery Panic 恢复中间件，按统一错误结构返回 500
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					fmt.Errorf("%v", rec),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code":    http.StatusInternalServerError,
					"message": errors.ErrInternalError.Message,
					"error": gin.H{
						"error_code": string(errors.CodeInternalError),
					},
					"trace_id": c.GetString("trace_id"),
				})
			}
		}()

		c.Next()
	}
}
