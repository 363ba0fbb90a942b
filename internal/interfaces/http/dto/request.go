package dto

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"game-gen-ai-api/internal/domain/repository"
)

// BindPage 读取 page 与 page_size 查询参数，非法值按默认处理
func BindPage(c *gin.Context) repository.Pagination {
	return repository.NewPagination(
		parseIntWithDefault(c.Query("page"), 1),
		parseIntWithDefault(c.Query("page_size"), repository.DefaultPageSize),
	)
}

// BindActivityID 从 URI 绑定活动 ID
func BindActivityID(c *gin.Context) string {
	return c.Param("id")
}

// BindWindow 解析统计窗口，如 "24h"；为空或非法时返回 0
func BindWindow(c *gin.Context) time.Duration {
	s := c.Query("window")
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// parseIntWithDefault 解析整数，失败时返回默认值
func parseIntWithDefault(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
