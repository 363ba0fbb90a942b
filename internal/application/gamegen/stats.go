package gamegen

import (
	"context"
	"time"

	"game-gen-ai-api/internal/domain/repository"
	"game-gen-ai-api/pkg/errors"
)

// Stats 时间窗口内的生成统计
type Stats struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	TokensUsed  int64     `json:"tokens_used"`

	Providers []repository.ProviderTokenUsage `json:"providers"`

	// ActivitiesStored 全部已存储的活动数，不受窗口限制
	ActivitiesStored int64 `json:"activities_stored"`
}

// Stats 统计最近 window 内的 token 用量与已存储活动数
func (s *Service) Stats(ctx context.Context, window time.Duration) (*Stats, error) {
	if s.activities == nil || s.usageEvents == nil {
		return nil, errors.ErrServiceUnavailable.WithDetail("persistence is disabled")
	}
	if window <= 0 {
		window = 24 * time.Hour
	}

	end := s.now().UTC()
	start := end.Add(-window)
	tokens, err := s.usageEvents.GetTokenUsage(ctx, start, end)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to load token usage")
	}
	providers, err := s.usageEvents.GetTokenUsageByProvider(ctx, start, end)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to load provider usage")
	}
	if providers == nil {
		providers = []repository.ProviderTokenUsage{}
	}
	page, err := s.activities.List(ctx, nil, repository.NewPagination(1, 1))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "failed to count activities")
	}
	return &Stats{
		WindowStart:      start,
		WindowEnd:        end,
		TokensUsed:       tokens,
		Providers:        providers,
		ActivitiesStored: page.Total,
	}, nil
}
