package search

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opinions/internal/enums"
	"opinions/internal/query"
)

type item struct {
	id        uint
	title     string
	content   string
	author    string
	status    enums.Status
	published time.Time
}

func itemField(it item, f query.Field) (any, bool) {
	switch f {
	case query.FieldID:
		return it.id, true
	case query.FieldTitle:
		return it.title, true
	case query.FieldContent:
		return it.content, true
	case query.FieldAuthor:
		return it.author, true
	case query.FieldStatus:
		return it.status, true
	case query.FieldPublished, query.FieldCreated:
		return it.published, true
	}
	return nil, false
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 15, 4, 5, 0, time.UTC)
}

var items = []item{
	{1, "Tax reform", "budget cuts are coming", "alice", enums.PendingReview, at(2023, 12, 20)},
	{2, "Cats", "are great", "alice", enums.Published, at(2023, 12, 25)},
	{3, "Budget", "the cuts hurt", "bob", enums.Published, at(2024, 1, 3)},
	{4, "Draft idea", "tax everything", "bob", enums.Draft, at(2023, 12, 25)},
	{5, "Old news", "budget", "carol", enums.Acceptable, at(2023, 11, 1)},
}

type stubLookup struct {
	hidden []uint
	pinned []uint
	err    error
}

func (s stubLookup) HiddenIDs(context.Context, enums.ContentKind, uint) ([]uint, error) {
	return s.hidden, s.err
}

func (s stubLookup) PinnedIDs(context.Context, enums.ContentKind, uint) ([]uint, error) {
	return s.pinned, s.err
}

func params(kv ...string) RequestParams {
	p := RequestParams{}
	for i := 0; i+1 < len(kv); i += 2 {
		p[kv[i]] = Value{Raw: kv[i+1], Set: true}
	}
	return p
}

func resolve(t *testing.T, r *Resolver, req RequestParams, viewer uint) ([]uint, *Result) {
	t.Helper()
	res, err := r.Resolve(context.Background(), req, viewer)
	require.NoError(t, err)
	out := res.Params.Apply(query.NewSlice(items, itemField)).(*query.Slice[item])
	var got []uint
	for _, it := range out.Items() {
		got = append(got, it.id)
	}
	return got, res
}

func TestCompositeStatusExpansion(t *testing.T) {
	r := NewResolver(Opinions, nil)
	res, err := r.Resolve(context.Background(), params(KeyStatus, "review"), 0)
	require.NoError(t, err)

	term, ok := res.Params.Predicate().(query.Term)
	require.True(t, ok)
	assert.Equal(t, query.FieldStatus, term.Field)
	assert.Equal(t, query.OpIn, term.Op)
	assert.Equal(t, []any{enums.PendingReview, enums.UnderReview, enums.Withdrawn, enums.Acceptable, enums.Unacceptable}, term.Value)
	assert.Equal(t, []Criterion{{Key: KeyStatus, RawValue: "review"}}, res.SearchTerms)
}

func TestStatusAllIsInclusive(t *testing.T) {
	r := NewResolver(Opinions, nil, WithDefaultStatus(enums.Published))
	got, res := resolve(t, r, params(KeyStatus, "all"), 0)
	assert.False(t, res.Params.IsEmpty())
	assert.True(t, res.Params.WasApplied(KeyStatus))
	assert.Nil(t, res.Params.Predicate())
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, got)
}

func TestFuzzyMultiMatchBuildsOrGroup(t *testing.T) {
	r := NewResolver(Opinions, nil)
	got, res := resolve(t, r, params(KeyStatus, "publish"), 0)

	or, ok := res.Params.Predicate().(query.Or)
	require.True(t, ok)
	assert.Len(t, or, 2)
	assert.Equal(t, []uint{2, 3, 4}, got)
	assert.Empty(t, res.InvalidTerms)
}

func TestAmbiguousCriteriaStaySeparate(t *testing.T) {
	r := NewResolver(Opinions, stubLookup{pinned: []uint{5}})

	// "revie" 命中所有带 Review 的状态
	got, _ := resolve(t, r, params(KeyStatus, "revie"), 7)
	assert.Equal(t, []uint{1, 5}, got)

	// "pinned" 同时命中 Pinned 和 Unpinned，不能放宽状态条件
	got, res := resolve(t, r, params(KeyStatus, "revie", KeyPinned, "pinned"), 7)
	assert.Equal(t, []uint{1, 5}, got)
	and, ok := res.Params.Predicate().(query.And)
	require.True(t, ok)
	require.Len(t, and, 2)
	for _, part := range and {
		assert.IsType(t, query.Or{}, part)
	}

	got, _ = resolve(t, r, params(KeyStatus, "publish", KeyPinned, "pinned"), 7)
	assert.Equal(t, []uint{2, 3, 4}, got)

	got, _ = resolve(t, r, params(KeySearch, `status="revie" pinned="pinned"`), 7)
	assert.Equal(t, []uint{1, 5}, got)
}

func TestUnknownVocabularyValueIsInvalid(t *testing.T) {
	r := NewResolver(Opinions, nil)
	got, res := resolve(t, r, params(KeyStatus, "zzz"), 0)
	assert.Equal(t, []Criterion{{Key: KeyStatus, RawValue: "zzz"}}, res.InvalidTerms)
	assert.Empty(t, res.SearchTerms)
	assert.True(t, res.Params.IsEmpty())
	assert.Len(t, got, 5)
}

func TestSearchMarkers(t *testing.T) {
	r := NewResolver(Opinions, nil)
	got, res := resolve(t, r, params(KeySearch, `TITLE="tax" dtgte='20/12/2023'`), 0)
	assert.Equal(t, []uint{1}, got)
	assert.ElementsMatch(t, []Criterion{
		{Key: KeyTitle, RawValue: "tax"},
		{Key: KeyOnOrAfter, RawValue: "20/12/2023"},
	}, res.SearchTerms)
	assert.Empty(t, res.InvalidTerms)
}

func TestSearchMarkerWithStatusComposite(t *testing.T) {
	r := NewResolver(Opinions, nil, WithDefaultStatus(enums.Published))
	got, _ := resolve(t, r, params(KeySearch, `status="pre_publish"`), 0)
	assert.Equal(t, []uint{4}, got)
}

func TestFallbackTokensMustAllMatch(t *testing.T) {
	r := NewResolver(Opinions, nil)
	got, res := resolve(t, r, params(KeySearch, "budget cuts"), 0)
	assert.Equal(t, []uint{1, 3}, got)
	assert.Equal(t, []Criterion{{Key: KeySearch, RawValue: "budget cuts"}}, res.SearchTerms)

	and, ok := res.Params.Predicate().(query.And)
	require.True(t, ok)
	assert.Len(t, and, 2)
}

func TestUnparseableSearchIsInvalid(t *testing.T) {
	r := NewResolver(Opinions, nil)
	got, res := resolve(t, r, params(KeySearch, `title="tax`), 0)
	assert.Equal(t, []Criterion{{Key: KeySearch, RawValue: `title="tax`}}, res.InvalidTerms)
	assert.Len(t, got, 5)
}

func TestUnsupportedKeyForComments(t *testing.T) {
	r := NewResolver(Comments, nil)
	_, res := resolve(t, r, params(KeySearch, `title="tax"`), 0)
	assert.Equal(t, []Criterion{{Key: KeyTitle, RawValue: "tax"}}, res.InvalidTerms)
}

func TestDateCriteria(t *testing.T) {
	tests := []struct {
		key  string
		raw  string
		want []uint
	}{
		{KeyOn, "25 12 2023", []uint{2, 4}},
		{KeyOn, "25.12.2023", []uint{2, 4}},
		{KeyAfter, "25-12-2023", []uint{3}},
		{KeyBefore, "25/12/2023", []uint{1, 5}},
		{KeyOnOrBefore, "20/12/2023", []uint{1, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.key+" "+tt.raw, func(t *testing.T) {
			got, res := resolve(t, NewResolver(Opinions, nil), params(tt.key, tt.raw), 0)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, res.InvalidTerms)
		})
	}
}

func TestParseDate(t *testing.T) {
	want := query.Date{Year: 2024, Month: time.January, Day: 5}
	for _, raw := range []string{"05/01/2024", "5/1/2024", "5 1 2024", "05-1-2024", "5.01.2024", " 5/1/2024 "} {
		d, ok := ParseDate(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, d, raw)
	}

	d, ok := ParseDate("25/12/2023")
	require.True(t, ok)
	assert.Equal(t, query.Date{Year: 2023, Month: time.December, Day: 25}, d)

	for _, raw := range []string{"2024-01-05", "31/02/2023", "tomorrow", "5/13/2024", "5/1/24", "1/2"} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, raw)
	}
}

func TestSingleDigitDateCriterion(t *testing.T) {
	got, res := resolve(t, NewResolver(Opinions, nil), params(KeyOnOrBefore, "3/1/2024"), 0)
	assert.Equal(t, []uint{1, 2, 3, 4, 5}, got)
	assert.Empty(t, res.InvalidTerms)

	got, _ = resolve(t, NewResolver(Opinions, nil), params(KeyBefore, "1/1/2024"), 0)
	assert.Equal(t, []uint{1, 2, 4, 5}, got)
}

func TestDefaultStatusDeferred(t *testing.T) {
	r := NewResolver(Opinions, nil, WithDefaultStatus(enums.Published))

	got, res := resolve(t, r, RequestParams{}, 0)
	assert.Equal(t, []uint{2, 3}, got)
	assert.Empty(t, res.SearchTerms, "defaults are not echoed")

	got, _ = resolve(t, r, params(KeyStatus, "draft"), 0)
	assert.Equal(t, []uint{4}, got)
}

func TestHiddenAndPinned(t *testing.T) {
	lookup := stubLookup{hidden: []uint{2, 3}, pinned: []uint{5}}
	r := NewResolver(Opinions, lookup)

	got, _ := resolve(t, r, params(KeyHidden, "yes"), 7)
	assert.Equal(t, []uint{2, 3}, got)

	got, _ = resolve(t, r, params(KeyHidden, "no", KeyPinned, "no"), 7)
	assert.Equal(t, []uint{1, 4}, got)

	got, res := resolve(t, r, params(KeyHidden, "ignore"), 7)
	assert.Len(t, got, 5)
	assert.False(t, res.Params.IsEmpty())

	// 匿名用户没有隐藏记录
	got, _ = resolve(t, r, params(KeyHidden, "yes"), 0)
	assert.Empty(t, got)
}

func TestHiddenExcludedByDefault(t *testing.T) {
	r := NewResolver(Opinions, stubLookup{hidden: []uint{1}}, WithHiddenExcluded())
	got, _ := resolve(t, r, RequestParams{}, 7)
	assert.Equal(t, []uint{2, 3, 4, 5}, got)

	got, _ = resolve(t, r, params(KeyHidden, "yes"), 7)
	assert.Equal(t, []uint{1}, got)

	got, _ = resolve(t, r, RequestParams{}, 0)
	assert.Len(t, got, 5)
}

func TestLookupErrorPropagates(t *testing.T) {
	r := NewResolver(Opinions, stubLookup{err: errors.New("db down")})
	_, err := r.Resolve(context.Background(), params(KeyPinned, "yes"), 7)
	assert.Error(t, err)
}

func TestOrderAndPaging(t *testing.T) {
	r := NewResolver(Opinions, nil)
	_, res := resolve(t, r, params(KeyOrder, "-title", KeyPage, "3", KeyPerPage, "20"), 0)
	assert.Equal(t, enums.OrderTitleDesc, res.Order)
	assert.Equal(t, 3, res.Page)
	assert.Equal(t, 20, res.PerPage)
	assert.Equal(t, 40, res.Offset())
	assert.Contains(t, res.SearchTerms, Criterion{Key: KeyOrder, RawValue: "-title"})

	_, res = resolve(t, r, params(KeyPage, "0", KeyPerPage, "7", KeyOrder, "sideways"), 0)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, enums.DefaultPerPage, res.PerPage)
	assert.Equal(t, enums.OrderNewest, res.Order)
	assert.Len(t, res.InvalidTerms, 3)

	// 有搜索串时默认排序不回显
	_, res = resolve(t, r, params(KeyOrder, "newest", KeySearch, "cats"), 0)
	assert.NotContains(t, res.SearchTerms, Criterion{Key: KeyOrder, RawValue: "newest"})
}

func TestFromQuery(t *testing.T) {
	values := url.Values{"Status": {"review"}, "title": {"  "}, "per-page": {"20"}}
	p := FromQuery(values)
	raw, ok := p.Get(KeyStatus)
	assert.True(t, ok)
	assert.Equal(t, "review", raw)
	_, ok = p.Get(KeyTitle)
	assert.False(t, ok)

	withDefault := p.With(KeyOrder, "newest").With(KeyStatus, "all")
	_, ok = withDefault.Get(KeyOrder)
	assert.False(t, ok, "defaults are not user-set")
	raw, _ = withDefault.Get(KeyStatus)
	assert.Equal(t, "review", raw)
}

func TestEndToEndAuthorAndReview(t *testing.T) {
	r := NewResolver(Opinions, nil, WithDefaultStatus(enums.Published))
	got, res := resolve(t, r, params(KeyStatus, "review", KeyAuthor, "alice"), 0)
	assert.Equal(t, []uint{1}, got)
	assert.Len(t, res.SearchTerms, 2)
}

func TestUnsupportedStructuredKeyForComments(t *testing.T) {
	r := NewResolver(Comments, nil)
	_, res := resolve(t, r, params(KeyCategory, "go"), 0)
	assert.Equal(t, []Criterion{{Key: KeyCategory, RawValue: "go"}}, res.InvalidTerms)
	assert.False(t, res.Params.WasApplied(KeyCategory))
}

func TestMatchStatuses(t *testing.T) {
	assert.Equal(t, []enums.Status{enums.PendingReview}, MatchStatuses("pending_review"))
	assert.Equal(t, []enums.Status{enums.PendingReview}, MatchStatuses(" pending "))
	assert.Equal(t, []enums.Status{enums.Published, enums.PrePublish}, MatchStatuses("publish"))
	assert.Empty(t, MatchStatuses("zzz"))
}
