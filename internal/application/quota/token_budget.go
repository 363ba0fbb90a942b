// Package quota 提供 token 预算控制
package quota

import (
	"context"
	"fmt"
	"time"
)

// UsageReader 读取区间内已消耗的 token
type UsageReader interface {
	GetTokenUsage(ctx context.Context, startInclusive, endExclusive time.Time) (int64, error)
}

// BudgetExceededError 当日 token 预算已耗尽
type BudgetExceededError struct {
	Max  int64
	Used int64
}

func (e BudgetExceededError) Error() string {
	return fmt.Sprintf("daily token budget exceeded: used=%d max=%d", e.Used, e.Max)
}

// TokenBudget 按 UTC 自然日检查全局 token 预算
type TokenBudget struct {
	usage UsageReader
	max   int64
	now   func() time.Time
}

// NewTokenBudget max <= 0 时 Check 总是放行
func NewTokenBudget(usage UsageReader, max int64) *TokenBudget {
	return &TokenBudget{usage: usage, max: max, now: time.Now}
}

// Check 返回当日已用量与上限；用量达到上限时返回 BudgetExceededError
func (b *TokenBudget) Check(ctx context.Context) (used int64, max int64, err error) {
	if b == nil || b.usage == nil || b.max <= 0 {
		return 0, 0, nil
	}

	start, end := dayWindow(b.now())
	used, err = b.usage.GetTokenUsage(ctx, start, end)
	if err != nil {
		return 0, b.max, err
	}
	if used >= b.max {
		return used, b.max, BudgetExceededError{Max: b.max, Used: used}
	}
	return used, b.max, nil
}

// dayWindow t 所在 UTC 日的 [start, end)
func dayWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
