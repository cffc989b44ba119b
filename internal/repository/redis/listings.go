package redis

import (
	"context"
	"time"

	"github.com/kirinyoku/stayledger/internal/domain"
	redisx "github.com/kirinyoku/stayledger/internal/redis"
	"github.com/kirinyoku/stayledger/internal/repository"
)

// ListingCache serves listing reads from redis in front of another registry.
// Listings never change once registered, so entries only expire. Misses for
// unknown listings are not cached.
type ListingCache struct {
	next  repository.ListingRepo
	cache *Cache
	ttl   time.Duration
}

var _ repository.ListingRepo = (*ListingCache)(nil)

func NewListingCache(next repository.ListingRepo, cache *Cache, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	return &ListingCache{next: next, cache: cache, ttl: ttl}
}

func (c *ListingCache) Get(ctx context.Context, id domain.Hash) (*domain.Listing, error) {
	l, err := GetOrSetJSON(
		ctx,
		c.cache,
		redisx.KeyListing(id),
		c.ttl,
		func(ctx context.Context) (domain.Listing, error) {
			l, err := c.next.Get(ctx, id)
			if err != nil {
				return domain.Listing{}, err
			}
			return *l, nil
		},
	)
	if err != nil {
		return nil, err
	}

	return &l, nil
}

func (c *ListingCache) Create(ctx context.Context, l *domain.Listing) error {
	if err := c.next.Create(ctx, l); err != nil {
		return err
	}

	_ = c.cache.Del(ctx, redisx.KeyListing(l.ID))

	return nil
}
