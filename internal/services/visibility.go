package services

import (
	"context"

	"opinions/internal/enums"
	"opinions/internal/models"
)

// Visibility 内容对某位用户的可见性
type Visibility struct {
	Reported         bool `json:"reported"`
	ReviewInProgress bool `json:"review_in_progress"`
	Viewable         bool `json:"viewable"`
	Hidden           bool `json:"hidden"`
}

// ViewOk 可见且未被该用户隐藏
func (v Visibility) ViewOk() bool {
	return v.Viewable && !v.Hidden
}

// SkipForAuthor 作者总能看到自己的内容，隐藏标记保留
func SkipForAuthor(v Visibility, authorID, viewerID uint) Visibility {
	if authorID == 0 || authorID != viewerID {
		return v
	}
	v.Viewable = true
	return v
}

type VisibilityResolver struct {
	reviews   ReviewStore
	reactions ReactionStore
}

// NewVisibilityResolver reactions 为 nil 时 Hidden 恒为 false
func NewVisibilityResolver(reviews ReviewStore, reactions ReactionStore) *VisibilityResolver {
	return &VisibilityResolver{reviews: reviews, reactions: reactions}
}

// Resolve anyUser 为 false 时只看 userID 自己的审核链，为 true 时看所有举报人
func (r *VisibilityResolver) Resolve(ctx context.Context, ref models.ContentRef, userID uint, anyUser bool) (Visibility, error) {
	records, err := r.reviews.Records(ctx, ref)
	if err != nil {
		return Visibility{}, err
	}
	v := evaluateVisibility(records, userID, anyUser)
	if userID != 0 && r.reactions != nil {
		if v.Hidden, err = r.reactions.IsHidden(ctx, ref, userID); err != nil {
			return Visibility{}, err
		}
	}
	return v, nil
}

// flagged 表示内容处于被举报状态
func flagged(s enums.Status) bool {
	return enums.ReviewInProgress.Contains(s) || s == enums.Unacceptable
}

// evaluateVisibility records 按 ID 升序。
// 某条审核链出现过举报且最近一条不是 Withdrawn/Acceptable 时内容不可见
func evaluateVisibility(records []models.ReviewRecord, userID uint, anyUser bool) Visibility {
	lineages := map[uint][]models.ReviewRecord{}
	var order []uint
	for _, rec := range records {
		if !anyUser && rec.RequesterID != userID {
			continue
		}
		if _, ok := lineages[rec.RequesterID]; !ok {
			order = append(order, rec.RequesterID)
		}
		lineages[rec.RequesterID] = append(lineages[rec.RequesterID], rec)
	}

	v := Visibility{Viewable: true}
	for _, requester := range order {
		recs := lineages[requester]
		everFlagged := false
		for _, rec := range recs {
			state := rec.State()
			if !flagged(state) {
				continue
			}
			everFlagged = true
			if anyUser || rec.IsCurrent {
				v.Reported = true
			}
			if rec.IsCurrent && enums.ReviewInProgress.Contains(state) {
				v.ReviewInProgress = true
			}
		}
		last := recs[len(recs)-1]
		if everFlagged && !enums.ReviewOver.Contains(last.State()) {
			v.Viewable = false
		}
	}
	return v
}
