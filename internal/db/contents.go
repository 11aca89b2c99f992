package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"opinions/internal/enums"
	"opinions/internal/models"
	"opinions/internal/services"
)

var (
	opinionPreloads = []string{"User", "Status", "Categories"}
	commentPreloads = []string{"User", "Status"}
)

func (s *Store) CreateOpinion(ctx context.Context, o *models.Opinion, categories []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sid, err := s.statuses.ID(ctx, o.Status.State())
		if err != nil {
			return err
		}
		o.StatusID = sid
		o.Status.ID = sid

		o.Categories = o.Categories[:0]
		for _, name := range categories {
			var c models.Category
			if err := tx.Where("LOWER(name) = LOWER(?)", name).Attrs(models.Category{Name: name}).FirstOrCreate(&c).Error; err != nil {
				return errors.Wrapf(err, "category %s", name)
			}
			o.Categories = append(o.Categories, c)
		}

		if err := tx.Omit("User", "Status").Create(o).Error; err != nil {
			return errors.Wrap(err, "create opinion")
		}
		return nil
	})
}

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	sid, err := s.statuses.ID(ctx, c.Status.State())
	if err != nil {
		return err
	}
	c.StatusID = sid
	c.Status.ID = sid
	err = s.db.WithContext(ctx).Omit("User", "Status", "Opinion", "Parent").Create(c).Error
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return models.NotFoundError{Resource: "opinion"}
	}
	return errors.Wrap(err, "create comment")
}

func (s *Store) Opinion(ctx context.Context, id uint) (*models.Opinion, error) {
	var o models.Opinion
	tx := s.db.WithContext(ctx)
	for _, p := range opinionPreloads {
		tx = tx.Preload(p)
	}
	if err := tx.First(&o, id).Error; err != nil {
		return nil, notFound(err, "opinion")
	}
	return &o, nil
}

func (s *Store) OpinionByPid(ctx context.Context, pid string) (*models.Opinion, error) {
	var o models.Opinion
	tx := s.db.WithContext(ctx)
	for _, p := range opinionPreloads {
		tx = tx.Preload(p)
	}
	if err := tx.Where("pid = ?", pid).First(&o).Error; err != nil {
		return nil, notFound(err, "opinion")
	}
	return &o, nil
}

func (s *Store) Comment(ctx context.Context, id uint) (*models.Comment, error) {
	var c models.Comment
	tx := s.db.WithContext(ctx)
	for _, p := range commentPreloads {
		tx = tx.Preload(p)
	}
	if err := tx.First(&c, id).Error; err != nil {
		return nil, notFound(err, "comment")
	}
	return &c, nil
}

func (s *Store) UpdateStatus(ctx context.Context, ref models.ContentRef, status enums.Status, published *time.Time) error {
	return s.setStatus(s.db.WithContext(ctx), ref, status, published)
}

func (s *Store) setStatus(tx *gorm.DB, ref models.ContentRef, status enums.Status, published *time.Time) error {
	sid, err := s.statuses.ID(tx.Statement.Context, status)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{"status_id": sid, "updated_at": s.now()}
	if published != nil {
		updates["published"] = *published
	}
	res := tx.Table(contentTable(ref.Kind)).Where("id = ?", ref.ID).Updates(updates)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "update status of %s", ref)
	}
	if res.RowsAffected == 0 {
		return models.NotFoundError{Resource: ref.Kind.String()}
	}
	return nil
}

// 评论的回复子树
const commentSubtree = `WITH RECURSIVE subtree AS (
	SELECT id FROM comments WHERE parent_id = ?
	UNION ALL
	SELECT c.id FROM comments c JOIN subtree ON c.parent_id = subtree.id
)
UPDATE comments SET status_id = ?, updated_at = ? WHERE id IN (SELECT id FROM subtree)`

func (s *Store) Delete(ctx context.Context, ref models.ContentRef) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.setStatus(tx, ref, enums.Deleted, nil); err != nil {
			return err
		}
		sid, err := s.statuses.ID(ctx, enums.Deleted)
		if err != nil {
			return err
		}
		now := s.now()
		if ref.Kind == enums.KindOpinion {
			err = tx.Model(&models.Comment{}).Where("opinion_id = ?", ref.ID).
				Updates(map[string]interface{}{"status_id": sid, "updated_at": now}).Error
		} else {
			err = tx.Exec(commentSubtree, ref.ID, sid, now).Error
		}
		return errors.Wrap(err, "cascade delete")
	})
}

func (s *Store) CommentCounts(ctx context.Context, opinionIDs []uint) (map[uint]int, error) {
	counts := map[uint]int{}
	if len(opinionIDs) == 0 {
		return counts, nil
	}
	deleted, err := s.statuses.ID(ctx, enums.Deleted)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		OpinionID uint
		N         int
	}
	err = s.db.WithContext(ctx).Model(&models.Comment{}).
		Select("opinion_id, COUNT(*) AS n").
		Where("opinion_id IN ? AND status_id <> ?", opinionIDs, deleted).
		Group("opinion_id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "count comments")
	}
	for _, r := range rows {
		counts[r.OpinionID] = r.N
	}
	return counts, nil
}

func (s *Store) Opinions(ctx context.Context) services.Listable[models.Opinion] {
	return NewCollection[models.Opinion](s.db.WithContext(ctx).Model(&models.Opinion{}), OpinionColumns, opinionPreloads...)
}

func (s *Store) Comments(ctx context.Context, opinionID uint) services.Listable[models.Comment] {
	tx := s.db.WithContext(ctx).Model(&models.Comment{})
	if opinionID != 0 {
		tx = tx.Where("comments.opinion_id = ?", opinionID)
	}
	return NewCollection[models.Comment](tx, CommentColumns, commentPreloads...)
}
