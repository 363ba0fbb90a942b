// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"game-gen-ai-api/internal/domain/entity"
)

// ActivityFilter 活动列表过滤条件
type ActivityFilter struct {
	Type     entity.ActivityType
	Category entity.Category
}

// ActivityRepository 已生成活动的存储
type ActivityRepository interface {
	Create(ctx context.Context, activity *entity.GeneratedActivity) error
	// GetByActivityID 未找到时返回 nil, nil
	GetByActivityID(ctx context.Context, activityID string) (*entity.GeneratedActivity, error)
	List(ctx context.Context, filter *ActivityFilter, pagination Pagination) (*PagedResult[*entity.GeneratedActivity], error)
}
