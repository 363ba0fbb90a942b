package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"game-gen-ai-api/internal/domain/entity"
	"game-gen-ai-api/internal/domain/repository"
)

// LLMUsageEventRepository 模型用量流水，只追加
type LLMUsageEventRepository struct {
	client *Client
}

func NewLLMUsageEventRepository(client *Client) *LLMUsageEventRepository {
	return &LLMUsageEventRepository{client: client}
}

func (r *LLMUsageEventRepository) Create(ctx context.Context, event *entity.LLMUsageEvent) error {
	ctx, span := tracer.Start(ctx, "postgres.LLMUsageEventRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(event).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create llm usage event: %w", err)
	}
	return nil
}

// GetTokenUsage 时间区间 [start, end) 内的 token 总量
func (r *LLMUsageEventRepository) GetTokenUsage(ctx context.Context, startInclusive, endExclusive time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.LLMUsageEventRepository.GetTokenUsage")
	defer span.End()

	db := getDB(ctx, r.client.db)

	var total int64
	if err := tokenUsageQuery(db, startInclusive, endExclusive).Scan(&total).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to get llm usage: %w", err)
	}
	return total, nil
}

// GetTokenUsageByProvider 按提供商汇总区间内的调用次数与 token
func (r *LLMUsageEventRepository) GetTokenUsageByProvider(ctx context.Context, startInclusive, endExclusive time.Time) ([]repository.ProviderTokenUsage, error) {
	ctx, span := tracer.Start(ctx, "postgres.LLMUsageEventRepository.GetTokenUsageByProvider")
	defer span.End()

	db := getDB(ctx, r.client.db)

	var rows []repository.ProviderTokenUsage
	if err := providerUsageQuery(db, startInclusive, endExclusive).Scan(&rows).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get llm usage by provider: %w", err)
	}
	return rows, nil
}

func usageWindow(db *gorm.DB, startInclusive, endExclusive time.Time) *gorm.DB {
	return db.Model(&entity.LLMUsageEvent{}).
		Where("created_at >= ? AND created_at < ?", startInclusive, endExclusive)
}

func providerUsageQuery(db *gorm.DB, startInclusive, endExclusive time.Time) *gorm.DB {
	return usageWindow(db, startInclusive, endExclusive).
		Select("provider, COUNT(*) AS calls, " +
			"COALESCE(SUM(tokens_prompt),0) AS prompt_tokens, " +
			"COALESCE(SUM(tokens_completion),0) AS completion_tokens").
		Group("provider").
		Order("provider")
}

func tokenUsageQuery(db *gorm.DB, startInclusive, endExclusive time.Time) *gorm.DB {
	return usageWindow(db, startInclusive, endExclusive).
		Select("COALESCE(SUM(COALESCE(tokens_prompt,0) + COALESCE(tokens_completion,0)),0)")
}
