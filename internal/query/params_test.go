package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	id        uint
	title     string
	tags      []string
	published time.Time
}

func docField(d doc, f Field) (any, bool) {
	switch f {
	case FieldID:
		return d.id, true
	case FieldTitle:
		return d.title, true
	case FieldCategory:
		return d.tags, true
	case FieldPublished:
		return d.published, true
	}
	return nil, false
}

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 30, 0, 0, time.UTC)
}

var docs = []doc{
	{id: 1, title: "Tax policy", tags: []string{"Economy"}, published: day(2023, 12, 25, 9)},
	{id: 2, title: "Cat pictures", tags: []string{"Pets", "Fun"}, published: day(2023, 12, 26, 23)},
	{id: 3, title: "Pet taxes", tags: nil, published: day(2024, 1, 2, 0)},
}

func ids(c Collection) []uint {
	var out []uint
	for _, d := range c.(*Slice[doc]).Items() {
		out = append(out, d.id)
	}
	return out
}

func newDocs() *Slice[doc] {
	return NewSlice(docs, docField)
}

func TestEmptyParamsIsIdentity(t *testing.T) {
	p := NewParams()
	assert.True(t, p.IsEmpty())
	assert.False(t, p.IsNone())
	assert.Nil(t, p.Predicate())
	assert.Equal(t, []uint{1, 2, 3}, ids(p.Apply(newDocs())))
}

func TestMarkEmpty(t *testing.T) {
	p := NewParams()
	p.AddAndTerm("title", Contains(FieldTitle, "tax"))
	p.MarkEmpty()
	assert.True(t, p.IsNone())
	assert.False(t, p.IsEmpty())
	assert.Empty(t, ids(p.Apply(newDocs())))
}

func TestAllInclusiveIsNotEmpty(t *testing.T) {
	p := NewParams()
	p.MarkAllInclusive("status")
	assert.False(t, p.IsEmpty())
	assert.True(t, p.WasApplied("status"))
	assert.Equal(t, []uint{1, 2, 3}, ids(p.Apply(newDocs())))
}

func TestAndTermsAndOrGroup(t *testing.T) {
	p := NewParams()
	p.AddAndTerm("title", Contains(FieldTitle, "TAX"))
	assert.Equal(t, []uint{1, 3}, ids(p.Apply(newDocs())))

	p.AddOrTerm("category", In(FieldCategory, "economy"))
	p.AddOrTerm("category", In(FieldCategory, "pets"))
	assert.Equal(t, []uint{1}, ids(p.Apply(newDocs())))

	pred, ok := p.Predicate().(And)
	require.True(t, ok)
	require.Len(t, pred, 2)
	assert.IsType(t, Or{}, pred[1])
}

func TestOrGroupOnly(t *testing.T) {
	p := NewParams()
	p.AddOrTerm("title", Contains(FieldTitle, "cat"))
	p.AddOrTerm("title", Contains(FieldTitle, "policy"))
	assert.Equal(t, []uint{1, 2}, ids(p.Apply(newDocs())))
}

func TestCustomFiltersRunInOrder(t *testing.T) {
	var calls []string
	p := NewParams()
	p.AddCustomFilter("hidden", func(c Collection) Collection {
		calls = append(calls, "hidden")
		return c.Filter(NotIn(FieldID, uint(2)))
	})
	p.AddCustomFilter("pinned", func(c Collection) Collection {
		calls = append(calls, "pinned")
		return c.Filter(In(FieldID, uint(2), uint(3)))
	})
	assert.Equal(t, []uint{3}, ids(p.Apply(newDocs())))
	assert.Equal(t, []string{"hidden", "pinned"}, calls)
}

func TestEmptyInMatchesNothing(t *testing.T) {
	p := NewParams()
	p.AddAndTerm("id", In[uint](FieldID))
	assert.Empty(t, ids(p.Apply(newDocs())))

	p = NewParams()
	p.AddAndTerm("id", NotIn[uint](FieldID))
	assert.Len(t, ids(p.Apply(newDocs())), 3)
}

func TestDateComparisonsIgnoreTimeOfDay(t *testing.T) {
	xmas := Date{Year: 2023, Month: time.December, Day: 25}
	tests := []struct {
		op   Op
		want []uint
	}{
		{OpDateEqual, []uint{1}},
		{OpDateOnOrAfter, []uint{1, 2, 3}},
		{OpDateAfter, []uint{2, 3}},
		{OpDateBefore, nil},
		{OpDateOnOrBefore, []uint{1}},
	}
	for _, tt := range tests {
		p := NewParams()
		p.AddAndTerm("dt", Term{Field: FieldPublished, Op: tt.op, Value: xmas})
		assert.Equal(t, tt.want, ids(p.Apply(newDocs())), "op %d", tt.op)
	}
}

func TestUnknownFieldNeverMatches(t *testing.T) {
	p := NewParams()
	p.AddAndTerm("author", Contains(FieldAuthor, ""))
	assert.Empty(t, ids(p.Apply(newDocs())))
}

func TestSliceFetch(t *testing.T) {
	s := newDocs()
	items, total, err := s.Fetch(Order{Field: FieldTitle}, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "Cat pictures", items[0].title)
	assert.Equal(t, "Pet taxes", items[1].title)

	items, _, err = s.Fetch(Order{Field: FieldPublished, Desc: true}, 2, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.EqualValues(t, 1, items[0].id)

	items, _, err = s.Fetch(Order{Field: FieldTitle}, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDateOf(t *testing.T) {
	d := DateOf(day(2024, 2, 29, 23))
	assert.Equal(t, "2024-02-29", d.String())
	assert.Equal(t, 0, d.Compare(Date{2024, time.February, 29}))
	assert.Equal(t, -1, d.Compare(Date{2024, time.March, 1}))
	assert.Equal(t, 1, d.Compare(Date{2023, time.December, 31}))
}
