package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"opinions/internal/query"
)

// Collection gorm 查询上的内容集合，Filter 只追加 WHERE，不执行查询
type Collection[T any] struct {
	tx       *gorm.DB
	cols     ColumnMap
	preloads []string
	none     bool
}

// NewCollection tx 需已设置 Model
func NewCollection[T any](tx *gorm.DB, cols ColumnMap, preloads ...string) *Collection[T] {
	return &Collection[T]{tx: tx.Session(&gorm.Session{}), cols: cols, preloads: preloads}
}

func (c *Collection[T]) Filter(p query.Predicate) query.Collection {
	sql, args := c.cols.Translate(p)
	out := *c
	out.tx = c.tx.Where(sql, args...).Session(&gorm.Session{})
	return &out
}

func (c *Collection[T]) None() query.Collection {
	out := *c
	out.none = true
	return &out
}

// Fetch 先计数再取当前页
func (c *Collection[T]) Fetch(order query.Order, offset, limit int) ([]T, int64, error) {
	rows := []T{}
	if c.none {
		return rows, 0, nil
	}

	var total int64
	if err := c.tx.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count")
	}

	tx := c.tx.Order(c.cols.OrderBy(order)).Offset(offset)
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	for _, p := range c.preloads {
		tx = tx.Preload(p)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, 0, errors.Wrap(err, "fetch")
	}
	return rows, total, nil
}

// Statement 调试与测试用，返回 DryRun 下生成的 SQL
func (c *Collection[T]) Statement(order query.Order, offset, limit int) string {
	var rows []T
	stmt := c.tx.Session(&gorm.Session{DryRun: true}).
		Order(c.cols.OrderBy(order)).Offset(offset).Limit(limit).
		Find(&rows).Statement
	return stmt.SQL.String()
}
