package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"opinions/internal/enums"
	"opinions/internal/metrics"
	"opinions/internal/models"
)

const maxReasonLen = 500

// ReviewService 举报审核流程：Report → Assign → Decide，举报人可在结论前 Withdraw。
// 每次转换追加一条记录并在同一事务内替换审核链上的当前记录。
type ReviewService struct {
	reviews  ReviewStore
	contents ContentStore
	notes    NotificationStore
	metrics  *metrics.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// NewReviewService notes 为 nil 时不发送通知
func NewReviewService(reviews ReviewStore, contents ContentStore, notes NotificationStore, m *metrics.Metrics, log zerolog.Logger) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		contents: contents,
		notes:    notes,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// Report 举报内容。同一举报人对同一内容已有当前记录时返回 ErrAlreadyUnderReview
func (s *ReviewService) Report(ctx context.Context, ref models.ContentRef, requesterID uint, reason string) (*models.ReviewRecord, error) {
	info, err := loadLiveContent(ctx, s.contents, ref)
	if err != nil {
		return nil, err
	}
	lineage := models.Lineage{Content: ref, RequesterID: requesterID}
	rec, err := s.reviews.Transition(ctx, lineage, func(current []models.ReviewRecord) (*models.ReviewRecord, error) {
		if len(current) > 0 {
			return nil, ErrAlreadyUnderReview
		}
		return s.record(lineage, enums.PendingReview, cleanReason(reason), nil, true), nil
	})
	rec, err = s.done("report", rec, err)
	if err == nil && info.authorID != requesterID {
		s.notify(ctx, info.authorID, models.NotificationTypeReportReceived, rec)
	}
	return rec, err
}

// Assign 审核员接手，记录变为 UnderReview。Unacceptable 的当前记录可重新审核
func (s *ReviewService) Assign(ctx context.Context, recordID, reviewerID uint) (*models.ReviewRecord, error) {
	lineage, err := s.lineageOf(ctx, recordID)
	if err != nil {
		return s.done("assign", nil, err)
	}
	rec, err := s.reviews.Transition(ctx, lineage, func(current []models.ReviewRecord) (*models.ReviewRecord, error) {
		cur, ok := latest(current)
		if !ok {
			return nil, ErrNotInReview
		}
		switch cur.State() {
		case enums.PendingReview, enums.UnderReview, enums.Unacceptable:
		default:
			return nil, ErrInvalidTransition
		}
		return s.record(lineage, enums.UnderReview, cur.Reason, &reviewerID, true), nil
	})
	return s.done("assign", rec, err)
}

// Decide 给出结论：Acceptable 与 Withdrawn 结束审核链，Unacceptable 保持为当前记录
func (s *ReviewService) Decide(ctx context.Context, recordID, reviewerID uint, decision enums.Status, note string) (*models.ReviewRecord, error) {
	switch decision {
	case enums.Acceptable, enums.Unacceptable, enums.Withdrawn:
	default:
		s.metrics.ObserveTransition("decide", ErrorCode(ErrInvalidTransition))
		return nil, ErrInvalidTransition
	}
	lineage, err := s.lineageOf(ctx, recordID)
	if err != nil {
		return s.done("decide", nil, err)
	}
	rec, err := s.reviews.Transition(ctx, lineage, func(current []models.ReviewRecord) (*models.ReviewRecord, error) {
		cur, ok := latest(current)
		if !ok {
			return nil, ErrNotInReview
		}
		if !enums.ReviewInProgress.Contains(cur.State()) {
			return nil, ErrInvalidTransition
		}
		reason := cur.Reason
		if note = cleanReason(note); note != "" {
			reason = note
		}
		r := s.record(lineage, decision, reason, &reviewerID, decision == enums.Unacceptable)
		r.Resolved = s.now()
		return r, nil
	})
	rec, err = s.done("decide", rec, err)
	if err == nil {
		s.notifyDecision(ctx, rec)
	}
	return rec, err
}

// Withdraw 举报人撤回，只能在结论前
func (s *ReviewService) Withdraw(ctx context.Context, recordID, requesterID uint) (*models.ReviewRecord, error) {
	lineage, err := s.lineageOf(ctx, recordID)
	if err != nil {
		return s.done("withdraw", nil, err)
	}
	if lineage.RequesterID != requesterID {
		s.metrics.ObserveTransition("withdraw", ErrorCode(ErrNotRequester))
		return nil, ErrNotRequester
	}
	rec, err := s.reviews.Transition(ctx, lineage, func(current []models.ReviewRecord) (*models.ReviewRecord, error) {
		cur, ok := latest(current)
		if !ok {
			return nil, ErrNotInReview
		}
		if !enums.ReviewInProgress.Contains(cur.State()) {
			return nil, ErrInvalidTransition
		}
		r := s.record(lineage, enums.Withdrawn, cur.Reason, cur.ReviewerID, false)
		r.Resolved = s.now()
		return r, nil
	})
	return s.done("withdraw", rec, err)
}

// History 内容的全部审核记录
func (s *ReviewService) History(ctx context.Context, ref models.ContentRef) ([]models.ReviewRecord, error) {
	return s.reviews.Records(ctx, ref)
}

// Queue 审核队列，statuses 可含组合状态，取并集
func (s *ReviewService) Queue(ctx context.Context, statuses []enums.Status, page, perPage int) ([]models.ReviewRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	var atoms []enums.Status
	seen := map[enums.Status]bool{}
	for _, st := range statuses {
		for _, a := range st.Listing() {
			if !seen[a] {
				seen[a] = true
				atoms = append(atoms, a)
			}
		}
	}
	return s.reviews.Queue(ctx, atoms, (page-1)*perPage, perPage)
}

func (s *ReviewService) Get(ctx context.Context, id uint) (*models.ReviewRecord, error) {
	return s.reviews.Get(ctx, id)
}

// lineageOf 记录所在的审核链，内容已删除时返回 NotFoundError
func (s *ReviewService) lineageOf(ctx context.Context, recordID uint) (models.Lineage, error) {
	rec, err := s.reviews.Get(ctx, recordID)
	if err != nil {
		return models.Lineage{}, err
	}
	if _, err := loadLiveContent(ctx, s.contents, rec.Ref()); err != nil {
		return models.Lineage{}, err
	}
	return rec.Lineage(), nil
}

func (s *ReviewService) record(lineage models.Lineage, status enums.Status, reason string, reviewerID *uint, current bool) *models.ReviewRecord {
	opinionID, commentID := lineage.Content.Target()
	return &models.ReviewRecord{
		OpinionID:   opinionID,
		CommentID:   commentID,
		RequesterID: lineage.RequesterID,
		Reason:      reason,
		ReviewerID:  reviewerID,
		Status:      models.StatusOf(status),
		IsCurrent:   current,
		Resolved:    models.NeverDate,
	}
}

func (s *ReviewService) done(transition string, rec *models.ReviewRecord, err error) (*models.ReviewRecord, error) {
	s.metrics.ObserveTransition(transition, ErrorCode(err))
	if err != nil {
		s.log.Debug().Err(err).Str("transition", transition).Msg("review transition rejected")
		return nil, err
	}
	s.log.Info().
		Str("transition", transition).
		Str("content", rec.Ref().String()).
		Uint("record", rec.ID).
		Uint("requester", rec.RequesterID).
		Str("status", rec.State().Arg()).
		Msg("review transition")
	return rec, nil
}

// notifyDecision 通知举报人与作者，失败只记日志
func (s *ReviewService) notifyDecision(ctx context.Context, rec *models.ReviewRecord) {
	if s.notes == nil {
		return
	}
	recipients := []uint{rec.RequesterID}
	if info, err := loadContentInfo(ctx, s.contents, rec.Ref()); err == nil && info.authorID != rec.RequesterID {
		recipients = append(recipients, info.authorID)
	}
	for _, uid := range recipients {
		s.notify(ctx, uid, models.NotificationTypeReviewDecided, rec)
	}
}

func (s *ReviewService) notify(ctx context.Context, userID uint, typ models.NotificationType, rec *models.ReviewRecord) {
	if s.notes == nil {
		return
	}
	n := &models.Notification{
		UserID:   userID,
		Type:     typ,
		ReviewID: rec.ID,
		Reason:   rec.State().Display() + ": " + rec.Reason,
	}
	if err := s.notes.Notify(ctx, n); err != nil {
		s.log.Warn().Err(err).Uint("user", userID).Msg("failed to send review notification")
	}
}

func latest(current []models.ReviewRecord) (models.ReviewRecord, bool) {
	if len(current) == 0 {
		return models.ReviewRecord{}, false
	}
	return current[len(current)-1], true
}

func cleanReason(reason string) string {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > maxReasonLen {
		reason = string([]rune(reason)[:maxReasonLen])
	}
	return reason
}
