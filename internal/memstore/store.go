// Package memstore 内存存储，开发模式和测试使用。所有方法由一把锁串行化
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"opinions/internal/enums"
	"opinions/internal/models"
	"opinions/internal/query"
	"opinions/internal/services"
)

type reactionKey struct {
	ref    models.ContentRef
	userID uint
}

type followKey struct {
	authorID uint
	userID   uint
}

type Store struct {
	mu sync.RWMutex

	users      map[uint]*models.User
	categories map[string]*models.Category
	opinions   map[uint]*models.Opinion
	comments   map[uint]*models.Comment
	reviews    []models.ReviewRecord
	hides      map[reactionKey]time.Time
	pins       map[reactionKey]time.Time
	follows    map[followKey]time.Time
	agreements map[reactionKey]enums.Agreement
	notes      []models.Notification

	nextID uint
	now    func() time.Time
}

var (
	_ services.ContentStore      = (*Store)(nil)
	_ services.ReviewStore       = (*Store)(nil)
	_ services.ReactionStore     = (*Store)(nil)
	_ services.UserStore         = (*Store)(nil)
	_ services.NotificationStore = (*Store)(nil)
)

func New() *Store {
	return &Store{
		users:      map[uint]*models.User{},
		categories: map[string]*models.Category{},
		opinions:   map[uint]*models.Opinion{},
		comments:   map[uint]*models.Comment{},
		hides:      map[reactionKey]time.Time{},
		pins:       map[reactionKey]time.Time{},
		follows:    map[followKey]time.Time{},
		agreements: map[reactionKey]enums.Agreement{},
		now:        time.Now,
	}
}

// SetClock 测试中固定时间
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// AddUser 写入用户，ID 为 0 时自动分配
func (s *Store) AddUser(u *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.id()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.users[u.ID] = &cp
	return u
}

func (s *Store) User(ctx context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "user"}
	}
	cp := *u
	return &cp, nil
}

// ---------- 内容 ----------

func (s *Store) CreateOpinion(ctx context.Context, o *models.Opinion, categories []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.id()
	o.CreatedAt = s.now()
	o.UpdatedAt = o.CreatedAt
	o.Categories = o.Categories[:0]
	for _, name := range categories {
		c, ok := s.categories[strings.ToLower(name)]
		if !ok {
			c = &models.Category{ID: s.id(), Name: name, CreatedAt: o.CreatedAt, UpdatedAt: o.CreatedAt}
			s.categories[strings.ToLower(name)] = c
		}
		o.Categories = append(o.Categories, *c)
	}
	cp := *o
	s.opinions[o.ID] = &cp
	s.fillOpinion(o)
	return nil
}

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.opinions[c.OpinionID]; !ok {
		return models.NotFoundError{Resource: "opinion"}
	}
	c.ID = s.id()
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	s.comments[c.ID] = &cp
	s.fillComment(c)
	return nil
}

// fillOpinion 补全关联，与数据库存储的 Preload 结果一致
func (s *Store) fillOpinion(o *models.Opinion) {
	if u, ok := s.users[o.UserID]; ok {
		o.User = *u
	}
}

func (s *Store) fillComment(c *models.Comment) {
	if u, ok := s.users[c.UserID]; ok {
		c.User = *u
	}
}

func (s *Store) Opinion(ctx context.Context, id uint) (*models.Opinion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.opinions[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "opinion"}
	}
	cp := *o
	s.fillOpinion(&cp)
	return &cp, nil
}

func (s *Store) OpinionByPid(ctx context.Context, pid string) (*models.Opinion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.opinions {
		if o.Pid == pid {
			cp := *o
			s.fillOpinion(&cp)
			return &cp, nil
		}
	}
	return nil, models.NotFoundError{Resource: "opinion"}
}

func (s *Store) Comment(ctx context.Context, id uint) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "comment"}
	}
	cp := *c
	s.fillComment(&cp)
	return &cp, nil
}

func (s *Store) UpdateStatus(ctx context.Context, ref models.ContentRef, status enums.Status, published *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatus(ref, status, published)
}

// stateOf 内容当前的原子状态
func (s *Store) stateOf(ref models.ContentRef) (enums.Status, error) {
	switch ref.Kind {
	case enums.KindOpinion:
		if o, ok := s.opinions[ref.ID]; ok {
			return o.Status.State(), nil
		}
	case enums.KindComment:
		if c, ok := s.comments[ref.ID]; ok {
			return c.Status.State(), nil
		}
	}
	return 0, models.NotFoundError{Resource: ref.Kind.String()}
}

func (s *Store) setStatus(ref models.ContentRef, status enums.Status, published *time.Time) error {
	now := s.now()
	switch ref.Kind {
	case enums.KindOpinion:
		o, ok := s.opinions[ref.ID]
		if !ok {
			return models.NotFoundError{Resource: "opinion"}
		}
		o.Status = models.StatusOf(status)
		o.UpdatedAt = now
		if published != nil {
			o.Published = *published
		}
		return nil
	case enums.KindComment:
		c, ok := s.comments[ref.ID]
		if !ok {
			return models.NotFoundError{Resource: "comment"}
		}
		c.Status = models.StatusOf(status)
		c.UpdatedAt = now
		if published != nil {
			c.Published = *published
		}
		return nil
	}
	return models.NotFoundError{Resource: "content"}
}

// Delete 观点删除时其全部评论一并删除；评论删除时其回复子树一并删除
func (s *Store) Delete(ctx context.Context, ref models.ContentRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.setStatus(ref, enums.Deleted, nil); err != nil {
		return err
	}

	doomed := map[uint]bool{}
	if ref.Kind == enums.KindComment {
		doomed[ref.ID] = true
	}
	for changed := true; changed; {
		changed = false
		for _, c := range s.comments {
			if doomed[c.ID] {
				continue
			}
			if (ref.Kind == enums.KindOpinion && c.OpinionID == ref.ID) ||
				(c.ParentID != nil && doomed[*c.ParentID]) {
				doomed[c.ID] = true
				changed = true
			}
		}
	}
	for id := range doomed {
		if id != ref.ID || ref.Kind != enums.KindComment {
			if err := s.setStatus(models.CommentRef(id), enums.Deleted, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// CommentCounts 每个观点下未删除的评论数
func (s *Store) CommentCounts(ctx context.Context, opinionIDs []uint) (map[uint]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := map[uint]bool{}
	for _, id := range opinionIDs {
		want[id] = true
	}
	counts := map[uint]int{}
	for _, c := range s.comments {
		if want[c.OpinionID] && c.Status.State() != enums.Deleted {
			counts[c.OpinionID]++
		}
	}
	return counts, nil
}

// Opinions 当前全部观点的快照
func (s *Store) Opinions(ctx context.Context) services.Listable[models.Opinion] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Opinion, 0, len(s.opinions))
	for _, o := range s.opinions {
		cp := *o
		s.fillOpinion(&cp)
		items = append(items, cp)
	}
	return query.NewSlice(items, OpinionField)
}

func (s *Store) Comments(ctx context.Context, opinionID uint) services.Listable[models.Comment] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Comment, 0, len(s.comments))
	for _, c := range s.comments {
		if opinionID != 0 && c.OpinionID != opinionID {
			continue
		}
		cp := *c
		s.fillComment(&cp)
		items = append(items, cp)
	}
	return query.NewSlice(items, CommentField)
}

// OpinionField 观点字段取值
func OpinionField(o models.Opinion, f query.Field) (any, bool) {
	switch f {
	case query.FieldID:
		return o.ID, true
	case query.FieldTitle:
		return o.Title, true
	case query.FieldContent:
		return o.Content, true
	case query.FieldAuthor:
		return o.User.Username, true
	case query.FieldAuthorID:
		return o.UserID, true
	case query.FieldCategory:
		return o.CategoryNames(), true
	case query.FieldStatus:
		return o.Status.State(), true
	case query.FieldPublished:
		return o.Published, true
	case query.FieldCreated:
		return o.CreatedAt, true
	case query.FieldUpdated:
		return o.UpdatedAt, true
	}
	return nil, false
}

// CommentField 评论没有标题和分类
func CommentField(c models.Comment, f query.Field) (any, bool) {
	switch f {
	case query.FieldID:
		return c.ID, true
	case query.FieldContent:
		return c.Content, true
	case query.FieldAuthor:
		return c.User.Username, true
	case query.FieldAuthorID:
		return c.UserID, true
	case query.FieldStatus:
		return c.Status.State(), true
	case query.FieldPublished:
		return c.Published, true
	case query.FieldCreated:
		return c.CreatedAt, true
	case query.FieldUpdated:
		return c.UpdatedAt, true
	}
	return nil, false
}

// ---------- 审核 ----------

func (s *Store) Transition(ctx context.Context, lineage models.Lineage, fn services.TransitionFunc) (*models.ReviewRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 已删除的内容不再参与审核，也不能被改回其它状态
	state, err := s.stateOf(lineage.Content)
	if err != nil {
		return nil, err
	}
	if state == enums.Deleted {
		return nil, models.NotFoundError{Resource: lineage.Content.Kind.String()}
	}

	var current []int
	var records []models.ReviewRecord
	for i, r := range s.reviews {
		if r.IsCurrent && r.Lineage() == lineage {
			current = append(current, i)
			records = append(records, r)
		}
	}

	rec, err := fn(records)
	if err != nil {
		return nil, err
	}

	for _, i := range current {
		if !s.reviews[i].IsCurrent {
			return nil, models.ErrConcurrentTransition
		}
	}
	// 先改内容状态，失败时审核链保持原样
	if err := s.setStatus(lineage.Content, rec.State(), nil); err != nil {
		return nil, err
	}

	now := s.now()
	for _, i := range current {
		s.reviews[i].IsCurrent = false
		s.reviews[i].UpdatedAt = now
	}
	rec.ID = s.id()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.reviews = append(s.reviews, *rec)
	return rec, nil
}

func (s *Store) Get(ctx context.Context, id uint) (*models.ReviewRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reviews {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, models.NotFoundError{Resource: "review"}
}

func (s *Store) Records(ctx context.Context, ref models.ContentRef) ([]models.ReviewRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ReviewRecord
	for _, r := range s.reviews {
		if r.Ref() == ref {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) Queue(ctx context.Context, statuses []enums.Status, offset, limit int) ([]models.ReviewRecord, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := map[enums.Status]bool{}
	for _, st := range statuses {
		want[st] = true
	}
	var out []models.ReviewRecord
	for _, r := range s.reviews {
		state := r.State()
		if want[state] && (r.IsCurrent || enums.ReviewOver.Contains(state)) {
			out = append(out, r)
		}
	}
	total := int64(len(out))
	if offset >= len(out) {
		return []models.ReviewRecord{}, total, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

// ---------- 互动 ----------

func toggle[K comparable](m map[K]time.Time, k K, on bool, now time.Time) {
	if on {
		m[k] = now
	} else {
		delete(m, k)
	}
}

func (s *Store) SetHidden(ctx context.Context, ref models.ContentRef, userID uint, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	toggle(s.hides, reactionKey{ref, userID}, on, s.now())
	return nil
}

func (s *Store) SetPinned(ctx context.Context, ref models.ContentRef, userID uint, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	toggle(s.pins, reactionKey{ref, userID}, on, s.now())
	return nil
}

func (s *Store) SetFollow(ctx context.Context, authorID, userID uint, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	toggle(s.follows, followKey{authorID, userID}, on, s.now())
	return nil
}

func (s *Store) IsHidden(ctx context.Context, ref models.ContentRef, userID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.hides[reactionKey{ref, userID}]
	return ok, nil
}

func (s *Store) IsPinned(ctx context.Context, ref models.ContentRef, userID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.pins[reactionKey{ref, userID}]
	return ok, nil
}

func (s *Store) IsFollowing(ctx context.Context, authorID, userID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.follows[followKey{authorID, userID}]
	return ok, nil
}

func (s *Store) Agreement(ctx context.Context, ref models.ContentRef, userID uint) (enums.Agreement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agreements[reactionKey{ref, userID}], nil
}

func (s *Store) SetAgreement(ctx context.Context, ref models.ContentRef, userID uint, a enums.Agreement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := reactionKey{ref, userID}
	if a == enums.AgreementNone {
		delete(s.agreements, k)
	} else {
		s.agreements[k] = a
	}
	return nil
}

func (s *Store) AgreementCounts(ctx context.Context, ref models.ContentRef) (agree, disagree int64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, a := range s.agreements {
		if k.ref != ref {
			continue
		}
		switch a {
		case enums.AgreementAgree:
			agree++
		case enums.AgreementDisagree:
			disagree++
		}
	}
	return agree, disagree, nil
}

func (s *Store) HiddenIDs(ctx context.Context, kind enums.ContentKind, userID uint) ([]uint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return idsOf(s.hides, kind, userID), nil
}

func (s *Store) PinnedIDs(ctx context.Context, kind enums.ContentKind, userID uint) ([]uint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return idsOf(s.pins, kind, userID), nil
}

func idsOf(m map[reactionKey]time.Time, kind enums.ContentKind, userID uint) []uint {
	ids := []uint{}
	for k := range m {
		if k.userID == userID && k.ref.Kind == kind {
			ids = append(ids, k.ref.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ---------- 通知 ----------

func (s *Store) Notify(ctx context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.id()
	n.CreatedAt = s.now()
	s.notes = append(s.notes, *n)
	return nil
}

// Notifications 最新的在前
func (s *Store) Notifications(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Notification{}
	for i := len(s.notes) - 1; i >= 0; i-- {
		if s.notes[i].UserID != userID {
			continue
		}
		out = append(out, s.notes[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
