package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opinions/internal/enums"
	"opinions/internal/models"
	"opinions/internal/services"
)

func TestCreateOpinion(t *testing.T) {
	e := newEnv(t)
	o, err := e.content.CreateOpinion(e.ctx, e.alice.ID, "  Tabs ", "tabs over spaces", []string{"Code", "code", " ", "Style"})
	require.NoError(t, err)
	assert.Len(t, o.Pid, 8)
	assert.Equal(t, "Tabs", o.Title)
	assert.Equal(t, enums.Draft, o.Status.State())
	assert.False(t, o.IsPublished())
	assert.Equal(t, []string{"Code", "Style"}, o.CategoryNames())

	_, err = e.content.CreateOpinion(e.ctx, e.alice.ID, "", "body", nil)
	assert.ErrorIs(t, err, services.ErrInvalidContent)

	got, err := e.content.OpinionByPid(e.ctx, o.Pid)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
}

func TestSetStatusLegality(t *testing.T) {
	e := newEnv(t)
	o := e.opinion(t, e.alice, "Tabs", "tabs over spaces", enums.Draft)
	ref := models.OpinionRef(o.ID)

	assert.ErrorIs(t, e.content.SetStatus(e.ctx, ref, e.bob.ID, enums.Published), services.ErrNotAuthor)
	assert.ErrorIs(t, e.content.SetStatus(e.ctx, ref, e.alice.ID, enums.Acceptable), services.ErrInvalidTransition)

	require.NoError(t, e.content.SetStatus(e.ctx, ref, e.alice.ID, enums.Preview))
	require.NoError(t, e.content.Publish(e.ctx, ref, e.alice.ID))
	o, err := e.store.Opinion(e.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.Published, o.Status.State())
	assert.True(t, o.IsPublished())
	first := o.Published

	// 再次发布不改变首次发布时间
	require.NoError(t, e.content.SetStatus(e.ctx, ref, e.alice.ID, enums.Draft))
	require.NoError(t, e.content.Publish(e.ctx, ref, e.alice.ID))
	o, err = e.store.Opinion(e.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, first, o.Published)

	_, err = e.reviews.Report(e.ctx, ref, e.bob.ID, "rude")
	require.NoError(t, err)
	assert.ErrorIs(t, e.content.SetStatus(e.ctx, ref, e.alice.ID, enums.Draft), services.ErrInvalidTransition)
}

func TestDeleteCascades(t *testing.T) {
	e := newEnv(t)
	o := e.opinion(t, e.alice, "Tabs", "tabs over spaces", enums.Published)
	top := e.comment(t, e.bob, o.ID, nil, "top")
	reply := e.comment(t, e.carol, o.ID, &top.ID, "reply")
	assert.Equal(t, 1, reply.Level)
	other := e.comment(t, e.carol, o.ID, nil, "other")

	require.NoError(t, e.content.SetStatus(e.ctx, models.CommentRef(top.ID), e.bob.ID, enums.Deleted))
	for id, want := range map[uint]enums.Status{top.ID: enums.Deleted, reply.ID: enums.Deleted, other.ID: enums.Published} {
		c, err := e.store.Comment(e.ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, c.Status.State(), id)
	}

	require.NoError(t, e.content.SetStatus(e.ctx, models.OpinionRef(o.ID), e.alice.ID, enums.Deleted))
	c, err := e.store.Comment(e.ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.Deleted, c.Status.State())

	_, err = e.content.OpinionByPid(e.ctx, o.Pid)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, e.content.SetStatus(e.ctx, models.OpinionRef(o.ID), e.alice.ID, enums.Published), services.ErrInvalidTransition)
}

func TestCreateCommentParentMustMatch(t *testing.T) {
	e := newEnv(t)
	a := e.opinion(t, e.alice, "A", "first", enums.Published)
	b := e.opinion(t, e.alice, "B", "second", enums.Published)
	parent := e.comment(t, e.bob, a.ID, nil, "on a")

	_, err := e.content.CreateComment(e.ctx, e.carol.ID, b.ID, &parent.ID, "wrong thread")
	assert.ErrorIs(t, err, services.ErrInvalidContent)

	_, err = e.content.CreateComment(e.ctx, e.carol.ID, 404, nil, "no opinion")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
