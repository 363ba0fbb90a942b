// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"game-gen-ai-api/internal/domain/entity"
	"game-gen-ai-api/internal/domain/repository"
)

// ActivityRepository 已生成活动仓储实现
type ActivityRepository struct {
	client *Client
}

// NewActivityRepository 创建活动仓储
func NewActivityRepository(client *Client) *ActivityRepository {
	return &ActivityRepository{client: client}
}

// Create 保存活动；同一 activity_id 已存在时覆盖内容
func (r *ActivityRepository) Create(ctx context.Context, activity *entity.GeneratedActivity) error {
	ctx, span := tracer.Start(ctx, "postgres.ActivityRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "activity_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "category", "title", "prompt", "strategy", "warning_count", "payload"}),
	}).Create(activity).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// GetByActivityID 按模型生成的活动 id 查询
func (r *ActivityRepository) GetByActivityID(ctx context.Context, activityID string) (*entity.GeneratedActivity, error) {
	ctx, span := tracer.Start(ctx, "postgres.ActivityRepository.GetByActivityID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var activity entity.GeneratedActivity
	if err := db.First(&activity, "activity_id = ?", activityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return &activity, nil
}

// List 按创建时间倒序分页
func (r *ActivityRepository) List(ctx context.Context, filter *repository.ActivityFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.GeneratedActivity], error) {
	ctx, span := tracer.Start(ctx, "postgres.ActivityRepository.List")
	defer span.End()

	query := activityListQuery(getDB(ctx, r.client.db), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count activities: %w", err)
	}

	var items []*entity.GeneratedActivity
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&items).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	return repository.NewPagedResult(items, total, pagination), nil
}

func activityListQuery(db *gorm.DB, filter *repository.ActivityFilter) *gorm.DB {
	query := db.Model(&entity.GeneratedActivity{})
	if filter != nil {
		if filter.Type != "" {
			query = query.Where("type = ?", filter.Type)
		}
		if filter.Category != "" {
			query = query.Where("category = ?", filter.Category)
		}
	}
	return query
}
