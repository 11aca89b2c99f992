package db

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"opinions/internal/enums"
	"opinions/internal/models"
)

// toggleRow on 时插入（已存在则忽略），off 时删除
func (s *Store) toggleRow(ctx context.Context, row interface{}, where string, on bool, args ...interface{}) error {
	tx := s.db.WithContext(ctx)
	var err error
	if on {
		err = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
	} else {
		err = tx.Where(where, args...).Delete(row).Error
	}
	return errors.Wrap(err, "toggle reaction")
}

func (s *Store) exists(ctx context.Context, model interface{}, where string, args ...interface{}) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where(where, args...).Count(&n).Error; err != nil {
		return false, errors.Wrap(err, "check reaction")
	}
	return n > 0, nil
}

func refWhere(ref models.ContentRef) string {
	return "user_id = ? AND " + targetColumn(ref.Kind) + " = ?"
}

func (s *Store) SetHidden(ctx context.Context, ref models.ContentRef, userID uint, on bool) error {
	opinionID, commentID := ref.Target()
	row := &models.HideRecord{UserID: userID, OpinionID: opinionID, CommentID: commentID}
	return s.toggleRow(ctx, row, refWhere(ref), on, userID, ref.ID)
}

func (s *Store) SetPinned(ctx context.Context, ref models.ContentRef, userID uint, on bool) error {
	opinionID, commentID := ref.Target()
	row := &models.PinRecord{UserID: userID, OpinionID: opinionID, CommentID: commentID}
	return s.toggleRow(ctx, row, refWhere(ref), on, userID, ref.ID)
}

func (s *Store) SetFollow(ctx context.Context, authorID, userID uint, on bool) error {
	row := &models.FollowRecord{UserID: userID, AuthorID: authorID}
	return s.toggleRow(ctx, row, "user_id = ? AND author_id = ?", on, userID, authorID)
}

func (s *Store) IsHidden(ctx context.Context, ref models.ContentRef, userID uint) (bool, error) {
	return s.exists(ctx, &models.HideRecord{}, refWhere(ref), userID, ref.ID)
}

func (s *Store) IsPinned(ctx context.Context, ref models.ContentRef, userID uint) (bool, error) {
	return s.exists(ctx, &models.PinRecord{}, refWhere(ref), userID, ref.ID)
}

func (s *Store) IsFollowing(ctx context.Context, authorID, userID uint) (bool, error) {
	return s.exists(ctx, &models.FollowRecord{}, "user_id = ? AND author_id = ?", userID, authorID)
}

func (s *Store) Agreement(ctx context.Context, ref models.ContentRef, userID uint) (enums.Agreement, error) {
	var rec models.AgreementRecord
	err := s.db.WithContext(ctx).Where(refWhere(ref), userID, ref.ID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return enums.AgreementNone, nil
	}
	if err != nil {
		return enums.AgreementNone, errors.Wrap(err, "load agreement")
	}
	return rec.Status, nil
}

// SetAgreement 每个用户每条内容一行，原地更新
func (s *Store) SetAgreement(ctx context.Context, ref models.ContentRef, userID uint, a enums.Agreement) error {
	tx := s.db.WithContext(ctx)
	if a == enums.AgreementNone {
		err := tx.Where(refWhere(ref), userID, ref.ID).Delete(&models.AgreementRecord{}).Error
		return errors.Wrap(err, "clear agreement")
	}
	opinionID, commentID := ref.Target()
	rec := &models.AgreementRecord{UserID: userID, OpinionID: opinionID, CommentID: commentID, Status: a}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: targetColumn(ref.Kind)}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(rec).Error
	return errors.Wrap(err, "save agreement")
}

func (s *Store) AgreementCounts(ctx context.Context, ref models.ContentRef) (agree, disagree int64, err error) {
	var rows []struct {
		Status enums.Agreement
		N      int64
	}
	err = s.db.WithContext(ctx).Model(&models.AgreementRecord{}).
		Select("status, COUNT(*) AS n").
		Where(targetColumn(ref.Kind)+" = ?", ref.ID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, errors.Wrap(err, "count agreements")
	}
	for _, r := range rows {
		switch r.Status {
		case enums.AgreementAgree:
			agree = r.N
		case enums.AgreementDisagree:
			disagree = r.N
		}
	}
	return agree, disagree, nil
}

func (s *Store) HiddenIDs(ctx context.Context, kind enums.ContentKind, userID uint) ([]uint, error) {
	return s.pluckIDs(ctx, &models.HideRecord{}, kind, userID)
}

func (s *Store) PinnedIDs(ctx context.Context, kind enums.ContentKind, userID uint) ([]uint, error) {
	return s.pluckIDs(ctx, &models.PinRecord{}, kind, userID)
}

func (s *Store) pluckIDs(ctx context.Context, model interface{}, kind enums.ContentKind, userID uint) ([]uint, error) {
	col := targetColumn(kind)
	ids := []uint{}
	err := s.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND "+col+" IS NOT NULL", userID).
		Order(col).
		Pluck(col, &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "load reaction ids")
	}
	return ids, nil
}
