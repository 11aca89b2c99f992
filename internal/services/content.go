package services

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"opinions/internal/enums"
	"opinions/internal/models"
	"opinions/internal/utils"
)

// 作者可直接设置的状态
var authorStatuses = []enums.Status{enums.Draft, enums.Preview, enums.Published, enums.Deleted}

type contentInfo struct {
	state     enums.Status
	authorID  uint
	published bool
}

func loadContentInfo(ctx context.Context, store ContentStore, ref models.ContentRef) (contentInfo, error) {
	switch ref.Kind {
	case enums.KindOpinion:
		o, err := store.Opinion(ctx, ref.ID)
		if err != nil {
			return contentInfo{}, err
		}
		return contentInfo{state: o.Status.State(), authorID: o.UserID, published: o.IsPublished()}, nil
	case enums.KindComment:
		c, err := store.Comment(ctx, ref.ID)
		if err != nil {
			return contentInfo{}, err
		}
		return contentInfo{state: c.Status.State(), authorID: c.UserID, published: c.IsPublished()}, nil
	}
	return contentInfo{}, models.NotFoundError{Resource: "content"}
}

// loadLiveContent 已删除的内容对外视为不存在
func loadLiveContent(ctx context.Context, store ContentStore, ref models.ContentRef) (contentInfo, error) {
	info, err := loadContentInfo(ctx, store, ref)
	if err != nil {
		return info, err
	}
	if info.state == enums.Deleted {
		return info, models.NotFoundError{Resource: ref.Kind.String()}
	}
	return info, nil
}

// ContentService 观点与评论的创建和作者侧状态变更
type ContentService struct {
	store ContentStore
	log   zerolog.Logger
	now   func() time.Time
}

func NewContentService(store ContentStore, log zerolog.Logger) *ContentService {
	return &ContentService{store: store, log: log, now: time.Now}
}

// CreateOpinion 新建观点，初始为 Draft
func (s *ContentService) CreateOpinion(ctx context.Context, authorID uint, title, content string, categories []string) (*models.Opinion, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, ErrInvalidContent
	}

	o := &models.Opinion{
		Pid:       utils.RandStringBytesMaskImpr(8),
		UserID:    authorID,
		Status:    models.StatusOf(enums.Draft),
		Title:     title,
		Content:   content,
		Published: models.NeverDate,
	}
	if err := s.store.CreateOpinion(ctx, o, cleanNames(categories)); err != nil {
		return nil, err
	}
	s.log.Info().Uint("opinion", o.ID).Uint("author", authorID).Msg("opinion created")
	return o, nil
}

// CreateComment 新建评论，parentID 非空时为回复，必须属于同一观点
func (s *ContentService) CreateComment(ctx context.Context, authorID, opinionID uint, parentID *uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrInvalidContent
	}
	if _, err := loadLiveContent(ctx, s.store, models.OpinionRef(opinionID)); err != nil {
		return nil, err
	}

	c := &models.Comment{
		OpinionID: opinionID,
		UserID:    authorID,
		ParentID:  parentID,
		Status:    models.StatusOf(enums.Draft),
		Content:   content,
		Published: models.NeverDate,
	}
	if parentID != nil {
		parent, err := s.store.Comment(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.OpinionID != opinionID || parent.Status.State() == enums.Deleted {
			return nil, errors.Wrap(ErrInvalidContent, "parent comment belongs to another opinion")
		}
		c.Level = parent.Level + 1
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetStatus 作者设置状态：审核中或已删除的内容不可改，审核状态只能由审核流程产生
func (s *ContentService) SetStatus(ctx context.Context, ref models.ContentRef, actorID uint, target enums.Status) error {
	if !containsStatus(authorStatuses, target) {
		return ErrInvalidTransition
	}
	info, err := loadContentInfo(ctx, s.store, ref)
	if err != nil {
		return err
	}
	if info.authorID != actorID {
		return ErrNotAuthor
	}
	if info.state == enums.Deleted || enums.ReviewInProgress.Contains(info.state) {
		return ErrInvalidTransition
	}

	if target == enums.Deleted {
		if err := s.store.Delete(ctx, ref); err != nil {
			return err
		}
		s.log.Info().Str("content", ref.String()).Msg("content deleted")
		return nil
	}

	var published *time.Time
	if target == enums.Published && !info.published {
		now := s.now()
		published = &now
	}
	return s.store.UpdateStatus(ctx, ref, target, published)
}

// Publish 创建后直接发布的快捷方式
func (s *ContentService) Publish(ctx context.Context, ref models.ContentRef, actorID uint) error {
	return s.SetStatus(ctx, ref, actorID, enums.Published)
}

func (s *ContentService) OpinionByPid(ctx context.Context, pid string) (*models.Opinion, error) {
	o, err := s.store.OpinionByPid(ctx, pid)
	if err != nil {
		return nil, err
	}
	if o.Status.State() == enums.Deleted {
		return nil, models.NotFoundError{Resource: "opinion"}
	}
	return o, nil
}

// Comment 未删除的评论
func (s *ContentService) Comment(ctx context.Context, id uint) (*models.Comment, error) {
	c, err := s.store.Comment(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status.State() == enums.Deleted {
		return nil, models.NotFoundError{Resource: "comment"}
	}
	return c, nil
}

func containsStatus(list []enums.Status, s enums.Status) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func cleanNames(names []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
