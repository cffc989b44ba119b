package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/kirinyoku/stayledger/internal/domain"
	redisx "github.com/kirinyoku/stayledger/internal/redis"
)

// Cache is a read-through JSON cache for listings and listing calendars.
// Redis is never the source of truth: a failing or corrupt entry is treated
// as a miss and the value is loaded again.
type Cache struct {
	rdb *redis.Client
	sf  singleflight.Group
}

func New(client *redis.Client) *Cache {
	return &Cache{rdb: client}
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	const op = "redis.Cache.Del"

	if len(keys) == 0 {
		return nil
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// InvalidateListing drops the cached calendar of a listing.
func (c *Cache) InvalidateListing(ctx context.Context, listingID domain.Hash) error {
	return c.Del(ctx, redisx.KeyListingCalendar(listingID))
}

// lookup reports a hit only for a present and decodable entry.
func lookup[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var out T

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return out, false
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		_ = c.rdb.Del(ctx, key).Err()
		return out, false
	}

	return out, true
}

func SetJSON(
	ctx context.Context,
	c *Cache,
	key string,
	val any,
	ttl time.Duration,
) error {
	const op = "redis.SetJSON"

	b, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := c.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// GetOrSetJSON returns the cached value under key or loads, stores and
// returns it. Concurrent misses on the same key share one load. Only loader
// errors are returned.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	if v, ok := lookup[T](ctx, c, key); ok {
		return v, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		if v, ok := lookup[T](ctx, c, key); ok {
			return v, nil
		}

		loaded, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		_ = SetJSON(ctx, c, key, loaded, ttl)

		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, errors.New("redis.GetOrSetJSON: shared load returned a different type")
	}

	return out, nil
}
