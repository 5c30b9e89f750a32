package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/user/dealwatch/internal/entity"
	"github.com/user/dealwatch/internal/repository"
)

// cachedStore answers Exists from a SeenCache when it can and falls back to the store.
// The store stays the source of truth; cache errors are logged and otherwise ignored.
type cachedStore struct {
	repository.ListingRepository
	cache  repository.SeenCache
	logger *zap.Logger
}

// WithSeenCache wraps store so membership checks hit cache first.
func WithSeenCache(store repository.ListingRepository, cache repository.SeenCache, logger *zap.Logger) repository.ListingRepository {
	return &cachedStore{ListingRepository: store, cache: cache, logger: logger}
}

func (c *cachedStore) Exists(ctx context.Context, id string) (bool, error) {
	seen, err := c.cache.IsSeen(ctx, id)
	if err != nil {
		c.logger.Warn("seen cache lookup failed, using store", zap.String("id", id), zap.Error(err))
	} else if seen {
		return true, nil
	}

	exists, err := c.ListingRepository.Exists(ctx, id)
	if err != nil {
		return false, err
	}
	if exists {
		// Backfill ids stored before the cache existed.
		c.mark(ctx, id)
	}
	return exists, nil
}

func (c *cachedStore) Insert(ctx context.Context, l *entity.Listing) error {
	err := c.ListingRepository.Insert(ctx, l)
	if err != nil && !errors.Is(err, repository.ErrDuplicateKey) {
		return err
	}
	c.mark(ctx, l.ID)
	return err
}

func (c *cachedStore) Ping(ctx context.Context) error {
	if err := c.ListingRepository.Ping(ctx); err != nil {
		return err
	}
	return c.cache.Ping(ctx)
}

func (c *cachedStore) Close() error {
	return errors.Join(c.cache.Close(), c.ListingRepository.Close())
}

func (c *cachedStore) mark(ctx context.Context, id string) {
	if err := c.cache.MarkSeen(ctx, id); err != nil {
		c.logger.Warn("seen cache update failed", zap.String("id", id), zap.Error(err))
	}
}
