package db

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"opinions/internal/enums"
	"opinions/internal/models"
	"opinions/internal/services"
)

func lineageScope(l models.Lineage) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(targetColumn(l.Content.Kind)+" = ? AND requester_id = ?", l.Content.ID, l.RequesterID)
	}
}

// Transition 锁住内容行，使同一内容上的所有审核转换串行执行。已删除的内容按不存在处理
func (s *Store) Transition(ctx context.Context, lineage models.Lineage, fn services.TransitionFunc) (*models.ReviewRecord, error) {
	deleted, err := s.statuses.ID(ctx, enums.Deleted)
	if err != nil {
		return nil, err
	}
	var rec *models.ReviewRecord
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []uint
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Table(contentTable(lineage.Content.Kind)).
			Where("id = ?", lineage.Content.ID).
			Pluck("status_id", &locked).Error
		if err != nil {
			return errors.Wrap(err, "lock content")
		}
		if len(locked) == 0 || locked[0] == deleted {
			return models.NotFoundError{Resource: lineage.Content.Kind.String()}
		}

		var current []models.ReviewRecord
		err = tx.Preload("Status").Scopes(lineageScope(lineage)).
			Where("is_current = ?", true).
			Order("id").
			Find(&current).Error
		if err != nil {
			return errors.Wrap(err, "load current reviews")
		}

		rec, err = fn(current)
		if err != nil {
			return err
		}

		now := s.now()
		if len(current) > 0 {
			ids := make([]uint, len(current))
			for i, c := range current {
				ids[i] = c.ID
			}
			res := tx.Model(&models.ReviewRecord{}).
				Where("id IN ? AND is_current = ?", ids, true).
				Updates(map[string]interface{}{"is_current": false, "updated_at": now})
			if res.Error != nil {
				return errors.Wrap(res.Error, "supersede reviews")
			}
			if res.RowsAffected != int64(len(ids)) {
				return models.ErrConcurrentTransition
			}
		}

		sid, err := s.statuses.ID(ctx, rec.State())
		if err != nil {
			return err
		}
		rec.StatusID = sid
		rec.Status.ID = sid
		if err := tx.Omit(clause.Associations).Create(rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ErrConcurrentTransition
			}
			return errors.Wrap(err, "append review")
		}

		return s.setStatus(tx, lineage.Content, rec.State(), nil)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) Get(ctx context.Context, id uint) (*models.ReviewRecord, error) {
	var rec models.ReviewRecord
	if err := s.db.WithContext(ctx).Preload("Status").First(&rec, id).Error; err != nil {
		return nil, notFound(err, "review")
	}
	return &rec, nil
}

func (s *Store) Records(ctx context.Context, ref models.ContentRef) ([]models.ReviewRecord, error) {
	recs := []models.ReviewRecord{}
	err := s.db.WithContext(ctx).Preload("Status").
		Where(targetColumn(ref.Kind)+" = ?", ref.ID).
		Order("id").
		Find(&recs).Error
	if err != nil {
		return nil, errors.Wrap(err, "load reviews")
	}
	return recs, nil
}

func (s *Store) Queue(ctx context.Context, statuses []enums.Status, offset, limit int) ([]models.ReviewRecord, int64, error) {
	ids, err := s.statuses.IDs(ctx, statuses)
	if err != nil {
		return nil, 0, err
	}
	over, err := s.statuses.IDs(ctx, []enums.Status{enums.ReviewOver})
	if err != nil {
		return nil, 0, err
	}

	tx := s.db.WithContext(ctx).Model(&models.ReviewRecord{}).
		Where("status_id IN ?", ids).
		Where("is_current = ? OR status_id IN ?", true, over)

	var total int64
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count review queue")
	}
	recs := []models.ReviewRecord{}
	q := tx.Session(&gorm.Session{}).Preload("Status").Order("id").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, 0, errors.Wrap(err, "load review queue")
	}
	return recs, total, nil
}
