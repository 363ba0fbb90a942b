// Package repository 定义活动与用量的存储接口
package repository

import (
	"context"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TxKey 事务在 context 中的键，由存储实现写入
type TxKey struct{}

// Transactor 在同一事务内执行 fn；嵌套调用复用外层事务
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Pagination 页码从 1 开始
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NewPagination 越界值被夹到 [1, MaxPageSize]，非正的 pageSize 取默认值
func NewPagination(page, pageSize int) Pagination {
	page = max(page, 1)
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return Pagination{Page: page, PageSize: min(pageSize, MaxPageSize)}
}

func (p Pagination) Offset() int { return (p.Page - 1) * p.PageSize }

func (p Pagination) Limit() int { return p.PageSize }

// PagedResult 一页结果与总数
type PagedResult[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewPagedResult[T any](items []T, total int64, p Pagination) *PagedResult[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.PageSize > 0 {
		pages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return &PagedResult[T]{
		Items:      items,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: pages,
	}
}

// HasNext 是否还有下一页
func (r *PagedResult[T]) HasNext() bool {
	return r != nil && r.Page < r.TotalPages
}
