package services

import (
	"context"

	"github.com/rs/zerolog"

	"opinions/internal/enums"
	"opinions/internal/models"
)

// ReactionState 互动后返回给前端的最新状态
type ReactionState struct {
	Agreement enums.Agreement `json:"agreement"`
	Agree     int64           `json:"agree"`
	Disagree  int64           `json:"disagree"`
	Hidden    bool            `json:"hidden"`
	Pinned    bool            `json:"pinned"`
	Following bool            `json:"following"`
	ReviewID  uint            `json:"review_id,omitempty"`
}

type ReactionService struct {
	cfg      *enums.ReactionConfig
	store    ReactionStore
	contents ContentStore
	reviews  *ReviewService
	log      zerolog.Logger
}

func NewReactionService(cfg *enums.ReactionConfig, store ReactionStore, contents ContentStore, reviews *ReviewService, log zerolog.Logger) *ReactionService {
	return &ReactionService{cfg: cfg, store: store, contents: contents, reviews: reviews, log: log}
}

// Config 互动配置
func (s *ReactionService) Config() *enums.ReactionConfig {
	return s.cfg
}

// React 执行一次互动。赞同/反对再次点击相同项即取消，点击另一项则切换
func (s *ReactionService) React(ctx context.Context, ref models.ContentRef, userID uint, r enums.Reaction, reason string) (*ReactionState, error) {
	if !s.cfg.Allowed(ref.Kind, r) {
		return nil, ErrReactionNotAllowed
	}
	info, err := loadLiveContent(ctx, s.contents, ref)
	if err != nil {
		return nil, err
	}

	var reviewID uint
	switch r {
	case enums.ReactionAgree, enums.ReactionDisagree:
		want := enums.AgreementAgree
		if r == enums.ReactionDisagree {
			want = enums.AgreementDisagree
		}
		cur, err := s.store.Agreement(ctx, ref, userID)
		if err != nil {
			return nil, err
		}
		if cur == want {
			want = enums.AgreementNone
		}
		err = s.store.SetAgreement(ctx, ref, userID, want)
		if err != nil {
			return nil, err
		}
	case enums.ReactionHide, enums.ReactionShow:
		if err := s.store.SetHidden(ctx, ref, userID, r == enums.ReactionHide); err != nil {
			return nil, err
		}
	case enums.ReactionPin, enums.ReactionUnpin:
		if err := s.store.SetPinned(ctx, ref, userID, r == enums.ReactionPin); err != nil {
			return nil, err
		}
	case enums.ReactionFollow, enums.ReactionUnfollow:
		if info.authorID == userID {
			return nil, ErrReactionNotAllowed
		}
		if err := s.store.SetFollow(ctx, info.authorID, userID, r == enums.ReactionFollow); err != nil {
			return nil, err
		}
	case enums.ReactionReport:
		rec, err := s.reviews.Report(ctx, ref, userID, reason)
		if err != nil {
			return nil, err
		}
		reviewID = rec.ID
	}

	s.log.Debug().Str("content", ref.String()).Uint("user", userID).Str("reaction", r.Arg()).Msg("reaction")
	state, err := s.state(ctx, ref, userID, info.authorID)
	if err != nil {
		return nil, err
	}
	state.ReviewID = reviewID
	return state, nil
}

// State 当前用户对内容的互动状态
func (s *ReactionService) State(ctx context.Context, ref models.ContentRef, userID uint) (*ReactionState, error) {
	info, err := loadLiveContent(ctx, s.contents, ref)
	if err != nil {
		return nil, err
	}
	return s.state(ctx, ref, userID, info.authorID)
}

func (s *ReactionService) state(ctx context.Context, ref models.ContentRef, userID, authorID uint) (*ReactionState, error) {
	st := &ReactionState{}
	var err error
	if st.Agree, st.Disagree, err = s.store.AgreementCounts(ctx, ref); err != nil {
		return nil, err
	}
	if userID == 0 {
		return st, nil
	}
	if st.Agreement, err = s.store.Agreement(ctx, ref, userID); err != nil {
		return nil, err
	}
	if st.Hidden, err = s.store.IsHidden(ctx, ref, userID); err != nil {
		return nil, err
	}
	if st.Pinned, err = s.store.IsPinned(ctx, ref, userID); err != nil {
		return nil, err
	}
	if ref.Kind == enums.KindOpinion && authorID != userID {
		if st.Following, err = s.store.IsFollowing(ctx, authorID, userID); err != nil {
			return nil, err
		}
	}
	return st, nil
}
