package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"opinions/internal/cache"
	"opinions/internal/enums"
	"opinions/internal/models"
)

// StatusRegistry 状态名到 id 的映射，带本地缓存
type StatusRegistry struct {
	db    *gorm.DB
	cache *cache.LRU[string, uint]
}

func NewStatusRegistry(db *gorm.DB, ttl time.Duration) (*StatusRegistry, error) {
	c, err := cache.NewLRU[string, uint](64, ttl)
	if err != nil {
		return nil, err
	}
	return &StatusRegistry{db: db, cache: c}, nil
}

// ID 原子状态的主键
func (r *StatusRegistry) ID(ctx context.Context, s enums.Status) (uint, error) {
	name := s.Display()
	if id, ok := r.cache.Get(name); ok {
		return id, nil
	}
	var st models.Status
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, errors.Errorf("status %q is not seeded", name)
	}
	if err != nil {
		return 0, errors.Wrap(err, "load status")
	}
	r.cache.Set(name, st.ID)
	return st.ID, nil
}

// IDs 展开组合状态后的主键列表
func (r *StatusRegistry) IDs(ctx context.Context, statuses []enums.Status) ([]uint, error) {
	ids := make([]uint, 0, len(statuses))
	for _, s := range statuses {
		for _, a := range s.Listing() {
			id, err := r.ID(ctx, a)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
