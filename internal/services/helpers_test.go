package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"opinions/internal/enums"
	"opinions/internal/memstore"
	"opinions/internal/metrics"
	"opinions/internal/models"
	"opinions/internal/services"
)

type env struct {
	ctx       context.Context
	store     *memstore.Store
	metrics   *metrics.Metrics
	content   *services.ContentService
	reviews   *services.ReviewService
	vis       *services.VisibilityResolver
	reactions *services.ReactionService
	listing   *services.ListingService

	alice, bob, carol, mod *models.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memstore.New()
	clock := time.Date(2023, time.December, 25, 10, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	log := zerolog.Nop()
	m := metrics.New(prometheus.NewRegistry())

	e := &env{ctx: context.Background(), store: store, metrics: m}
	e.content = services.NewContentService(store, log)
	e.reviews = services.NewReviewService(store, store, store, m, log)
	e.vis = services.NewVisibilityResolver(store, store)
	e.reactions = services.NewReactionService(enums.NewReactionConfig(), store, store, e.reviews, log)
	e.listing = services.NewListingService(store, e.vis, store, m, log, enums.DefaultPerPage)

	e.alice = store.AddUser(&models.User{Username: "alice", Email: "alice@example.com"})
	e.bob = store.AddUser(&models.User{Username: "bob", Email: "bob@example.com"})
	e.carol = store.AddUser(&models.User{Username: "carol", Email: "carol@example.com"})
	e.mod = store.AddUser(&models.User{Username: "mod", Email: "mod@example.com", Role: models.RoleModerator})
	return e
}

// opinion 创建观点并设置为指定的作者状态
func (e *env) opinion(t *testing.T, author *models.User, title, content string, status enums.Status, categories ...string) *models.Opinion {
	t.Helper()
	o, err := e.content.CreateOpinion(e.ctx, author.ID, title, content, categories)
	require.NoError(t, err)
	if status != enums.Draft {
		require.NoError(t, e.content.SetStatus(e.ctx, models.OpinionRef(o.ID), author.ID, status))
	}
	o, err = e.store.Opinion(e.ctx, o.ID)
	require.NoError(t, err)
	return o
}

func (e *env) comment(t *testing.T, author *models.User, opinionID uint, parentID *uint, content string) *models.Comment {
	t.Helper()
	c, err := e.content.CreateComment(e.ctx, author.ID, opinionID, parentID, content)
	require.NoError(t, err)
	require.NoError(t, e.content.Publish(e.ctx, models.CommentRef(c.ID), author.ID))
	c, err = e.store.Comment(e.ctx, c.ID)
	require.NoError(t, err)
	return c
}

func currentCount(t *testing.T, e *env, ref models.ContentRef, requesterID uint) int {
	t.Helper()
	recs, err := e.reviews.History(e.ctx, ref)
	require.NoError(t, err)
	n := 0
	for _, r := range recs {
		if r.RequesterID == requesterID && r.IsCurrent {
			n++
		}
	}
	return n
}
