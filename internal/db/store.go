package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"opinions/internal/enums"
	"opinions/internal/models"
	"opinions/internal/services"
)

// Store 基于 gorm 的存储，实现 services 中的各存储接口
type Store struct {
	db       *gorm.DB
	statuses *StatusRegistry
	log      zerolog.Logger
	now      func() time.Time
}

var (
	_ services.ContentStore      = (*Store)(nil)
	_ services.ReviewStore       = (*Store)(nil)
	_ services.ReactionStore     = (*Store)(nil)
	_ services.UserStore         = (*Store)(nil)
	_ services.NotificationStore = (*Store)(nil)
)

func NewStore(db *gorm.DB, statuses *StatusRegistry, log zerolog.Logger) *Store {
	return &Store{db: db, statuses: statuses, log: log, now: time.Now}
}

// notFound 把 gorm 的未找到转换为 models.NotFoundError，其余错误附加上下文
func notFound(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NotFoundError{Resource: resource}
	}
	return errors.Wrapf(err, "load %s", resource)
}

func contentTable(kind enums.ContentKind) string {
	if kind == enums.KindComment {
		return "comments"
	}
	return "opinions"
}

// targetColumn 审核与互动表中指向内容的列
func targetColumn(kind enums.ContentKind) string {
	if kind == enums.KindComment {
		return "comment_id"
	}
	return "opinion_id"
}

func (s *Store) User(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// CreateUser 注册由外部认证完成，这里只负责写入
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(u).Error, "create user")
}

func (s *Store) Notify(ctx context.Context, n *models.Notification) error {
	return errors.Wrap(s.db.WithContext(ctx).Omit("User").Create(n).Error, "create notification")
}

func (s *Store) Notifications(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	notes := []models.Notification{}
	tx := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if err := tx.Find(&notes).Error; err != nil {
		return nil, errors.Wrap(err, "load notifications")
	}
	return notes, nil
}
