package repository

import (
	"context"
	"time"

	"game-gen-ai-api/internal/domain/entity"
)

// ProviderTokenUsage 单个提供商在区间内的用量汇总
type ProviderTokenUsage struct {
	Provider         string `json:"provider"`
	Calls            int64  `json:"calls"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
}

// LLMUsageEventRepository 模型用量流水，区间均为 [start, end)
type LLMUsageEventRepository interface {
	Create(ctx context.Context, event *entity.LLMUsageEvent) error
	GetTokenUsage(ctx context.Context, startInclusive, endExclusive time.Time) (int64, error)
	GetTokenUsageByProvider(ctx context.Context, startInclusive, endExclusive time.Time) ([]ProviderTokenUsage, error)
}
