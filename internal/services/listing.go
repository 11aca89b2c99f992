package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"opinions/internal/enums"
	"opinions/internal/metrics"
	"opinions/internal/models"
	"opinions/internal/query"
	"opinions/internal/search"
)

// Viewer 发起列表请求的用户，ID 为 0 表示匿名
type Viewer struct {
	ID        uint
	Moderator bool
}

type Item[T any] struct {
	Content    T          `json:"content"`
	Visibility Visibility `json:"visibility"`
}

// Page 一页结果，附带回显的搜索条件
type Page[T any] struct {
	Items        []Item[T]          `json:"items"`
	Total        int64              `json:"total"`
	Page         int                `json:"page"`
	PerPage      int                `json:"per_page"`
	Order        string             `json:"order"`
	SearchTerms  []search.Criterion `json:"search_terms"`
	InvalidTerms []search.Criterion `json:"invalid_terms"`
}

// PublicStatuses 未指定 status 时公开列表展示的状态
var PublicStatuses = []enums.Status{enums.Published, enums.ReviewOver}

// ListingService 解析查询参数、查询存储、按可见性过滤
type ListingService struct {
	contents   ContentStore
	visibility *VisibilityResolver
	opinions   *search.Resolver
	comments   *search.Resolver
	metrics    *metrics.Metrics
	log        zerolog.Logger
}

func NewListingService(contents ContentStore, visibility *VisibilityResolver, lookup search.ReactionLookup, m *metrics.Metrics, log zerolog.Logger, perPage int) *ListingService {
	opts := []search.Option{
		search.WithDefaultStatus(PublicStatuses...),
		search.WithHiddenExcluded(),
		search.WithDefaultPerPage(perPage),
	}
	return &ListingService{
		contents:   contents,
		visibility: visibility,
		opinions:   search.NewResolver(search.Opinions, lookup, opts...),
		comments:   search.NewResolver(search.Comments, lookup, opts...),
		metrics:    m,
		log:        log,
	}
}

// Opinions 观点列表
func (s *ListingService) Opinions(ctx context.Context, req search.RequestParams, viewer Viewer) (*Page[models.Opinion], error) {
	defer s.metrics.ObserveQuery("opinion", time.Now())
	page, err := list(ctx, s, s.opinions, s.contents.Opinions(ctx), req, viewer,
		func(o models.Opinion) (models.ContentRef, uint) { return models.OpinionRef(o.ID), o.UserID })
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(page.Items))
	for i, it := range page.Items {
		ids[i] = it.Content.ID
	}
	counts, err := s.contents.CommentCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range page.Items {
		page.Items[i].Content.CommentCount = counts[page.Items[i].Content.ID]
	}
	return page, nil
}

// Comments 评论列表，opinionID 为 0 时跨所有观点
func (s *ListingService) Comments(ctx context.Context, opinionID uint, req search.RequestParams, viewer Viewer) (*Page[models.Comment], error) {
	defer s.metrics.ObserveQuery("comment", time.Now())
	return list(ctx, s, s.comments, s.contents.Comments(ctx, opinionID), req, viewer,
		func(c models.Comment) (models.ContentRef, uint) { return models.CommentRef(c.ID), c.UserID })
}

// listableBy 已删除的内容从不列出；草稿和预览只列给作者本人和审核员
func listableBy(viewer Viewer) query.Predicate {
	live := query.NotIn(query.FieldStatus, enums.Deleted)
	if viewer.Moderator {
		return live
	}
	return query.And{live, query.Or{
		query.NotIn(query.FieldStatus, enums.PrePublish.Listing()...),
		query.In(query.FieldAuthorID, viewer.ID),
	}}
}

func list[T any](
	ctx context.Context,
	s *ListingService,
	resolver *search.Resolver,
	coll Listable[T],
	req search.RequestParams,
	viewer Viewer,
	identify func(T) (models.ContentRef, uint),
) (*Page[T], error) {
	res, err := resolver.Resolve(ctx, req, viewer.ID)
	if err != nil {
		return nil, err
	}
	res.Params.AddAndTerm("", listableBy(viewer))
	s.metrics.ObserveSearch(len(res.SearchTerms), len(res.InvalidTerms))

	page := &Page[T]{
		Items:        []Item[T]{},
		Page:         res.Page,
		PerPage:      res.PerPage,
		Order:        res.Order.Arg(),
		SearchTerms:  res.SearchTerms,
		InvalidTerms: res.InvalidTerms,
	}

	filtered, ok := res.Params.Apply(coll).(Listable[T])
	if !ok {
		return nil, errors.New("collection lost its element type while filtering")
	}
	rows, total, err := filtered.Fetch(res.Order.Order(), res.Offset(), res.PerPage)
	if err != nil {
		return nil, err
	}
	page.Total = total

	for _, row := range rows {
		ref, authorID := identify(row)
		v, err := s.visibility.Resolve(ctx, ref, viewer.ID, true)
		if err != nil {
			return nil, err
		}
		v = SkipForAuthor(v, authorID, viewer.ID)
		if !v.Viewable && !viewer.Moderator {
			continue
		}
		page.Items = append(page.Items, Item[T]{Content: row, Visibility: v})
	}
	if len(res.InvalidTerms) > 0 {
		s.log.Debug().Interface("invalid", res.InvalidTerms).Msg("ignored search terms")
	}
	return page, nil
}
