package search

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"opinions/internal/choice"
	"opinions/internal/enums"
	"opinions/internal/query"
)

// ReactionLookup 提供当前用户隐藏/置顶的内容 id
type ReactionLookup interface {
	HiddenIDs(ctx context.Context, kind enums.ContentKind, userID uint) ([]uint, error)
	PinnedIDs(ctx context.Context, kind enums.ContentKind, userID uint) ([]uint, error)
}

// Entity 描述一类内容支持的条件
type Entity struct {
	Kind       enums.ContentKind
	Keys       []string
	TextFields []query.Field // 无标记搜索时匹配的字段
	Orders     *choice.Vocabulary[enums.SortOrder]
}

var (
	Opinions = Entity{
		Kind: enums.KindOpinion,
		Keys: []string{
			KeyTitle, KeyContent, KeyAuthor, KeyCategory, KeyStatus, KeyHidden, KeyPinned,
			KeyOnOrAfter, KeyOnOrBefore, KeyAfter, KeyBefore, KeyOn,
		},
		TextFields: []query.Field{query.FieldTitle, query.FieldContent},
		Orders:     enums.OrderVocabulary,
	}
	Comments = Entity{
		Kind: enums.KindComment,
		Keys: []string{
			KeyContent, KeyAuthor, KeyStatus, KeyHidden, KeyPinned,
			KeyOnOrAfter, KeyOnOrBefore, KeyAfter, KeyBefore, KeyOn,
		},
		TextFields: []query.Field{query.FieldContent},
		Orders:     enums.CommentOrderVocabulary,
	}
)

var textFields = map[string]query.Field{
	KeyTitle:    query.FieldTitle,
	KeyContent:  query.FieldContent,
	KeyAuthor:   query.FieldAuthor,
	KeyCategory: query.FieldCategory,
}

var dateOps = map[string]query.Op{
	KeyOnOrAfter:  query.OpDateOnOrAfter,
	KeyOnOrBefore: query.OpDateOnOrBefore,
	KeyAfter:      query.OpDateAfter,
	KeyBefore:     query.OpDateBefore,
	KeyOn:         query.OpDateEqual,
}

var markerKeys = []string{
	KeyTitle, KeyContent, KeyAuthor, KeyCategory, KeyStatus, KeyHidden, KeyPinned,
	KeyOnOrAfter, KeyOnOrBefore, KeyAfter, KeyBefore, KeyOn,
}

// 搜索串中的 key="value" / key='value' 标记
var markers = func() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(markerKeys))
	for _, k := range markerKeys {
		out[k] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(k) + `\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	}
	return out
}()

// 日、月允许一位或两位数字
var dateLayouts = []string{"2 1 2006", "2/1/2006", "2-1-2006", "2.1.2006"}

// ParseDate 按 日 月 年 顺序依次尝试各分隔符
func ParseDate(raw string) (query.Date, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return query.DateOf(t), true
		}
	}
	return query.Date{}, false
}

// Result 解析结果
type Result struct {
	Params       *query.Params
	SearchTerms  []Criterion
	InvalidTerms []Criterion
	Order        enums.SortOrder
	Page         int
	PerPage      int
}

// Offset 当前页的起始位置
func (r *Result) Offset() int {
	return (r.Page - 1) * r.PerPage
}

type Option func(*Resolver)

// WithDefaultStatus 用户未指定 status 时追加的过滤，多个状态取并集
func WithDefaultStatus(statuses ...enums.Status) Option {
	return func(r *Resolver) { r.defaultStatus = statuses }
}

// WithHiddenExcluded 登录用户未指定 hidden 时排除其隐藏的内容
func WithHiddenExcluded() Option {
	return func(r *Resolver) { r.excludeHidden = true }
}

// WithDefaultPerPage 覆盖默认每页条数，必须是可选值之一
func WithDefaultPerPage(n int) Option {
	return func(r *Resolver) {
		if validPerPage(n) {
			r.perPage = n
		}
	}
}

// Resolver 把入站参数解析为谓词。无状态，可并发使用
type Resolver struct {
	entity        Entity
	lookup        ReactionLookup
	defaultStatus []enums.Status
	excludeHidden bool
	perPage       int
}

func NewResolver(entity Entity, lookup ReactionLookup, opts ...Option) *Resolver {
	r := &Resolver{entity: entity, lookup: lookup, perPage: enums.DefaultPerPage}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve 解析失败的条件记录在 InvalidTerms 中；error 只来自 id 集合查询
func (r *Resolver) Resolve(ctx context.Context, req RequestParams, viewerID uint) (*Result, error) {
	rs := &resolution{
		Resolver: r,
		ctx:      ctx,
		viewerID: viewerID,
		res: &Result{
			Params:  query.NewParams(),
			Order:   enums.OrderNewest,
			Page:    1,
			PerPage: r.perPage,
		},
	}

	// 不支持的 key 也要过一遍，记为无效条件
	for _, key := range markerKeys {
		if raw, ok := req.Get(key); ok {
			if err := rs.criterion(key, raw); err != nil {
				return nil, err
			}
		}
	}

	searchRaw, searched := req.Get(KeySearch)
	if searched {
		if err := rs.searchString(searchRaw); err != nil {
			return nil, err
		}
	}

	params := rs.res.Params
	if len(r.defaultStatus) > 0 && !params.WasApplied(KeyStatus) {
		params.AddAndTerm(KeyStatus, query.In(query.FieldStatus, union(r.defaultStatus)...))
	}
	if r.excludeHidden && viewerID != 0 && !params.WasApplied(KeyHidden) {
		if err := rs.applyPresence(KeyHidden, []enums.PresenceChoice{enums.HiddenNo}, rs.hiddenIDs); err != nil {
			return nil, err
		}
	}

	rs.order(req, searched)
	rs.paging(req)
	return rs.res, nil
}

type resolution struct {
	*Resolver
	ctx      context.Context
	viewerID uint
	res      *Result
}

func (rs *resolution) ok(key, raw string) {
	rs.res.SearchTerms = append(rs.res.SearchTerms, Criterion{Key: key, RawValue: raw})
}

func (rs *resolution) invalid(key, raw string) {
	rs.res.InvalidTerms = append(rs.res.InvalidTerms, Criterion{Key: key, RawValue: raw})
}

func (rs *resolution) supports(key string) bool {
	for _, k := range rs.entity.Keys {
		if k == key {
			return true
		}
	}
	return false
}

func (rs *resolution) criterion(key, raw string) error {
	if strings.TrimSpace(raw) == "" || !rs.supports(key) {
		rs.invalid(key, raw)
		return nil
	}
	params := rs.res.Params

	if field, ok := textFields[key]; ok {
		params.AddAndTerm(key, query.Contains(field, raw))
		rs.ok(key, raw)
		return nil
	}
	if op, ok := dateOps[key]; ok {
		d, ok := ParseDate(raw)
		if !ok {
			rs.invalid(key, raw)
			return nil
		}
		params.AddAndTerm(key, query.Term{Field: query.FieldPublished, Op: op, Value: d})
		rs.ok(key, raw)
		return nil
	}

	switch key {
	case KeyStatus:
		matches := matchVocabulary(enums.StatusVocabulary, raw)
		if len(matches) == 0 {
			rs.invalid(key, raw)
			return nil
		}
		rs.applyStatus(key, matches...)
	case KeyHidden:
		matches := matchVocabulary(enums.HiddenVocabulary, raw)
		if len(matches) == 0 {
			rs.invalid(key, raw)
			return nil
		}
		if err := rs.applyPresence(key, matches, rs.hiddenIDs); err != nil {
			return err
		}
	case KeyPinned:
		matches := matchVocabulary(enums.PinnedVocabulary, raw)
		if len(matches) == 0 {
			rs.invalid(key, raw)
			return nil
		}
		if err := rs.applyPresence(key, matches, rs.pinnedIDs); err != nil {
			return err
		}
	default:
		rs.invalid(key, raw)
		return nil
	}
	rs.ok(key, raw)
	return nil
}

// MatchStatuses 解析 status 取值：先按 arg 精确匹配，否则按展示名模糊匹配，可能命中多个
func MatchStatuses(raw string) []enums.Status {
	return matchVocabulary(enums.StatusVocabulary, strings.TrimSpace(raw))
}

func matchVocabulary[E choice.Entry](v *choice.Vocabulary[E], raw string) []E {
	if e, ok := v.FromArg(raw); ok {
		return []E{e}
	}
	return v.FuzzyMatchDisplay(raw, nil)
}

func (rs *resolution) applyStatus(key string, matches ...enums.Status) {
	params := rs.res.Params
	for _, s := range matches {
		if s == enums.All {
			params.MarkAllInclusive(key)
			return
		}
	}
	if len(matches) == 1 {
		params.AddAndTerm(key, query.In(query.FieldStatus, matches[0].Listing()...))
		return
	}
	// 每个条件自成一个 OR 组，与其它条件之间是 AND
	anyOf := make(query.Or, 0, len(matches))
	for _, s := range matches {
		anyOf = append(anyOf, query.In(query.FieldStatus, s.Listing()...))
	}
	params.AddAndTerm(key, anyOf)
}

func union(statuses []enums.Status) []enums.Status {
	var out []enums.Status
	seen := map[enums.Status]bool{}
	for _, s := range statuses {
		for _, a := range s.Listing() {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}

type idLoader func() ([]uint, error)

func (rs *resolution) hiddenIDs() ([]uint, error) {
	if rs.lookup == nil || rs.viewerID == 0 {
		return nil, nil
	}
	return rs.lookup.HiddenIDs(rs.ctx, rs.entity.Kind, rs.viewerID)
}

func (rs *resolution) pinnedIDs() ([]uint, error) {
	if rs.lookup == nil || rs.viewerID == 0 {
		return nil, nil
	}
	return rs.lookup.PinnedIDs(rs.ctx, rs.entity.Kind, rs.viewerID)
}

// applyPresence 单个取值注册为自定义过滤，多个取值合成一个 OR 条件
func (rs *resolution) applyPresence(key string, matches []enums.PresenceChoice, load idLoader) error {
	params := rs.res.Params
	for _, m := range matches {
		if m.Presence == enums.PresenceIgnore {
			params.MarkAllInclusive(key)
			return nil
		}
	}
	ids, err := load()
	if err != nil {
		return err
	}
	if len(matches) == 1 {
		term := presenceTerm(matches[0].Presence, ids)
		params.AddCustomFilter(key, func(c query.Collection) query.Collection {
			return c.Filter(term)
		})
		return nil
	}
	anyOf := make(query.Or, 0, len(matches))
	for _, m := range matches {
		anyOf = append(anyOf, presenceTerm(m.Presence, ids))
	}
	params.AddAndTerm(key, anyOf)
	return nil
}

func presenceTerm(p enums.Presence, ids []uint) query.Term {
	if p == enums.PresenceYes {
		return query.In(query.FieldID, ids...)
	}
	return query.NotIn(query.FieldID, ids...)
}

func (rs *resolution) searchString(raw string) error {
	matched := false
	for _, key := range markerKeys {
		for _, m := range markers[key].FindAllStringSubmatch(raw, -1) {
			matched = true
			value := m[1]
			if value == "" {
				value = m[2]
			}
			if err := rs.criterion(key, value); err != nil {
				return err
			}
		}
	}
	if matched {
		return nil
	}
	if strings.ContainsAny(raw, `="'`) {
		rs.invalid(KeySearch, raw)
		return nil
	}

	tokens := strings.Fields(raw)
	if len(tokens) == 0 {
		return nil
	}
	for _, tok := range tokens {
		inAnyField := make(query.Or, 0, len(rs.entity.TextFields))
		for _, f := range rs.entity.TextFields {
			inAnyField = append(inAnyField, query.Contains(f, tok))
		}
		rs.res.Params.AddAndTerm(KeySearch, inAnyField)
	}
	rs.ok(KeySearch, raw)
	return nil
}

func (rs *resolution) order(req RequestParams, searched bool) {
	raw, ok := req.Get(KeyOrder)
	if !ok {
		return
	}
	matches := matchVocabulary(rs.entity.Orders, raw)
	if len(matches) == 0 {
		rs.invalid(KeyOrder, raw)
		return
	}
	rs.res.Order = matches[0]
	if matches[0] != enums.OrderNewest || !searched {
		rs.ok(KeyOrder, raw)
	}
}

func (rs *resolution) paging(req RequestParams) {
	if raw, ok := req.Get(KeyPage); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			rs.invalid(KeyPage, raw)
		} else {
			rs.res.Page = n
		}
	}
	if raw, ok := req.Get(KeyPerPage); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || !validPerPage(n) {
			rs.invalid(KeyPerPage, raw)
		} else {
			rs.res.PerPage = n
		}
	}
}

func validPerPage(n int) bool {
	for _, c := range enums.PerPageChoices {
		if c == n {
			return true
		}
	}
	return false
}
