package gamegen

import (
	"context"
	"fmt"
	"strings"

	"game-gen-ai-api/internal/domain/entity"
	"game-gen-ai-api/internal/domain/repository"
	"game-gen-ai-api/internal/domain/service"
)

// UsageRecorder 将模型用量写入流水表
type UsageRecorder struct {
	repo repository.LLMUsageEventRepository
}

func NewUsageRecorder(repo repository.LLMUsageEventRepository) *UsageRecorder {
	return &UsageRecorder{repo: repo}
}

func (r *UsageRecorder) Record(ctx context.Context, in service.LLMUsageInput) error {
	if r == nil || r.repo == nil {
		return nil
	}
	if in.PromptTokens < 0 || in.CompletionTokens < 0 {
		return fmt.Errorf("invalid token usage")
	}

	return r.repo.Create(ctx, &entity.LLMUsageEvent{
		ActivityID:       strings.TrimSpace(in.ActivityID),
		Provider:         strings.TrimSpace(in.Provider),
		Model:            strings.TrimSpace(in.Model),
		Workflow:         strings.TrimSpace(in.Workflow),
		TokensPrompt:     in.PromptTokens,
		TokensCompletion: in.CompletionTokens,
		DurationMs:       in.DurationMs,
	})
}
