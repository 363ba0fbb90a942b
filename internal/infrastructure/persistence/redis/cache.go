package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"game-gen-ai-api/internal/domain/entity"
	"game-gen-ai-api/internal/domain/repository"
)

const defaultActivityTTL = 10 * time.Minute

// CachedActivityRepository 按活动 ID 读穿透缓存的活动仓储。
// 列表查询不走缓存。
type CachedActivityRepository struct {
	next   repository.ActivityRepository
	client *Client
	ttl    time.Duration
	group  singleflight.Group
}

var _ repository.ActivityRepository = (*CachedActivityRepository)(nil)

// NewCachedActivityRepository 包装底层仓储
func NewCachedActivityRepository(next repository.ActivityRepository, client *Client, ttl time.Duration) *CachedActivityRepository {
	if ttl <= 0 {
		ttl = defaultActivityTTL
	}
	return &CachedActivityRepository{next: next, client: client, ttl: ttl}
}

// ActivityCacheKey 活动缓存键
func ActivityCacheKey(activityID string) string {
	return "activity:" + activityID
}

// Create 直接委托底层仓储。可能处于未提交的事务中，
// 调用方须在提交后调用 Invalidate
func (r *CachedActivityRepository) Create(ctx context.Context, activity *entity.GeneratedActivity) error {
	return r.next.Create(ctx, activity)
}

// Invalidate 删除活动缓存
func (r *CachedActivityRepository) Invalidate(ctx context.Context, activityID string) error {
	if err := r.client.rdb.Del(ctx, ActivityCacheKey(activityID)).Err(); err != nil {
		return fmt.Errorf("invalidate activity %s: %w", activityID, err)
	}
	return nil
}

// GetByActivityID 先读缓存，未命中时合并并发加载
func (r *CachedActivityRepository) GetByActivityID(ctx context.Context, activityID string) (*entity.GeneratedActivity, error) {
	key := ActivityCacheKey(activityID)
	ctx, span := tracer.Start(ctx, "cache.GetActivity",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	val, err := r.client.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached entity.GeneratedActivity
		if uerr := json.Unmarshal(val, &cached); uerr == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		// 缓存不可用时直接回源
		span.RecordError(err)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, err, shared := r.group.Do(key, func() (interface{}, error) {
		act, err := r.next.GetByActivityID(ctx, activityID)
		if err != nil || act == nil {
			return act, err
		}
		if data, merr := json.Marshal(act); merr == nil {
			_ = r.client.rdb.Set(ctx, key, data, r.ttl).Err()
		}
		return act, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("load activity %s: %w", activityID, err)
	}
	act, _ := v.(*entity.GeneratedActivity)
	return act, nil
}

// List 直接委托底层仓储
func (r *CachedActivityRepository) List(ctx context.Context, filter *repository.ActivityFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.GeneratedActivity], error) {
	return r.next.List(ctx, filter, pagination)
}
