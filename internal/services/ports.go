package services

import (
	"context"
	"time"

	"opinions/internal/enums"
	"opinions/internal/models"
	"opinions/internal/query"
)

// Listable 可过滤、排序、分页的内容集合
type Listable[T any] interface {
	query.Collection
	Fetch(order query.Order, offset, limit int) ([]T, int64, error)
}

// TransitionFunc 拿到审核链上当前记录（按 ID 升序），返回要追加的新记录
type TransitionFunc func(current []models.ReviewRecord) (*models.ReviewRecord, error)

// ReviewStore 审核记录存储
type ReviewStore interface {
	// Transition 在一个原子单元内：锁定内容，读取审核链当前记录，调用 fn，
	// 把原当前记录置为非当前（数量不符返回 models.ErrConcurrentTransition），
	// 插入新记录，并把内容状态改为新记录的状态。
	// 内容不存在或已删除时返回 models.NotFoundError，不做任何修改。
	Transition(ctx context.Context, lineage models.Lineage, fn TransitionFunc) (*models.ReviewRecord, error)
	Get(ctx context.Context, id uint) (*models.ReviewRecord, error)
	// Records 内容的全部审核记录（所有举报人），按 ID 升序
	Records(ctx context.Context, ref models.ContentRef) ([]models.ReviewRecord, error)
	// Queue 状态在 statuses 中且为当前记录或已结案（Withdrawn/Acceptable）的记录，按 ID 升序
	Queue(ctx context.Context, statuses []enums.Status, offset, limit int) ([]models.ReviewRecord, int64, error)
}

// ContentStore 观点与评论存储
type ContentStore interface {
	CreateOpinion(ctx context.Context, o *models.Opinion, categories []string) error
	CreateComment(ctx context.Context, c *models.Comment) error
	Opinion(ctx context.Context, id uint) (*models.Opinion, error)
	OpinionByPid(ctx context.Context, pid string) (*models.Opinion, error)
	Comment(ctx context.Context, id uint) (*models.Comment, error)
	// UpdateStatus published 为 nil 时不修改发布时间
	UpdateStatus(ctx context.Context, ref models.ContentRef, status enums.Status, published *time.Time) error
	// Delete 标记为 Deleted，并级联到依赖的评论
	Delete(ctx context.Context, ref models.ContentRef) error
	CommentCounts(ctx context.Context, opinionIDs []uint) (map[uint]int, error)
	Opinions(ctx context.Context) Listable[models.Opinion]
	// Comments opinionID 为 0 时不限定观点
	Comments(ctx context.Context, opinionID uint) Listable[models.Comment]
}

// ReactionStore 隐藏、置顶、关注、赞同
type ReactionStore interface {
	SetHidden(ctx context.Context, ref models.ContentRef, userID uint, on bool) error
	SetPinned(ctx context.Context, ref models.ContentRef, userID uint, on bool) error
	SetFollow(ctx context.Context, authorID, userID uint, on bool) error
	IsHidden(ctx context.Context, ref models.ContentRef, userID uint) (bool, error)
	IsPinned(ctx context.Context, ref models.ContentRef, userID uint) (bool, error)
	IsFollowing(ctx context.Context, authorID, userID uint) (bool, error)
	Agreement(ctx context.Context, ref models.ContentRef, userID uint) (enums.Agreement, error)
	// SetAgreement AgreementNone 删除记录
	SetAgreement(ctx context.Context, ref models.ContentRef, userID uint, a enums.Agreement) error
	AgreementCounts(ctx context.Context, ref models.ContentRef) (agree, disagree int64, err error)
	HiddenIDs(ctx context.Context, kind enums.ContentKind, userID uint) ([]uint, error)
	PinnedIDs(ctx context.Context, kind enums.ContentKind, userID uint) ([]uint, error)
}

type UserStore interface {
	User(ctx context.Context, id uint) (*models.User, error)
}

type NotificationStore interface {
	Notify(ctx context.Context, n *models.Notification) error
	Notifications(ctx context.Context, userID uint, limit int) ([]models.Notification, error)
}
