package services

import (
	"context"

	"github.com/rs/zerolog"

	"opinions/internal/cache"
	"opinions/internal/enums"
	"opinions/internal/models"
)

const (
	setHidden = "hidden"
	setPinned = "pinned"
)

// CachedReactionStore 在 ReactionStore 外包一层 id 集合缓存，写入时失效
type CachedReactionStore struct {
	ReactionStore
	ids *cache.IDSets
	log zerolog.Logger
}

func NewCachedReactionStore(inner ReactionStore, ids *cache.IDSets, log zerolog.Logger) *CachedReactionStore {
	return &CachedReactionStore{ReactionStore: inner, ids: ids, log: log}
}

func (s *CachedReactionStore) SetHidden(ctx context.Context, ref models.ContentRef, userID uint, on bool) error {
	if err := s.ReactionStore.SetHidden(ctx, ref, userID, on); err != nil {
		return err
	}
	s.invalidate(ctx, s.ids.Key(setHidden, ref.Kind.String(), userID))
	return nil
}

func (s *CachedReactionStore) SetPinned(ctx context.Context, ref models.ContentRef, userID uint, on bool) error {
	if err := s.ReactionStore.SetPinned(ctx, ref, userID, on); err != nil {
		return err
	}
	s.invalidate(ctx, s.ids.Key(setPinned, ref.Kind.String(), userID))
	return nil
}

func (s *CachedReactionStore) HiddenIDs(ctx context.Context, kind enums.ContentKind, userID uint) ([]uint, error) {
	return s.cached(ctx, s.ids.Key(setHidden, kind.String(), userID), func() ([]uint, error) {
		return s.ReactionStore.HiddenIDs(ctx, kind, userID)
	})
}

func (s *CachedReactionStore) PinnedIDs(ctx context.Context, kind enums.ContentKind, userID uint) ([]uint, error) {
	return s.cached(ctx, s.ids.Key(setPinned, kind.String(), userID), func() ([]uint, error) {
		return s.ReactionStore.PinnedIDs(ctx, kind, userID)
	})
}

// cached Redis 不可用时回退到底层存储
func (s *CachedReactionStore) cached(ctx context.Context, key string, load func() ([]uint, error)) ([]uint, error) {
	ids, hit, err := s.ids.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("id set cache unavailable")
	} else if hit {
		return ids, nil
	}

	ids, err = load()
	if err != nil {
		return nil, err
	}
	if err := s.ids.Set(ctx, key, ids); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to fill id set cache")
	}
	return ids, nil
}

func (s *CachedReactionStore) invalidate(ctx context.Context, key string) {
	if err := s.ids.Delete(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to invalidate id set cache")
	}
}
