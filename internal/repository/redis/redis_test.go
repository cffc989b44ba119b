package redis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/stayledger/internal/domain"
	redisx "github.com/kirinyoku/stayledger/internal/redis"
	"github.com/kirinyoku/stayledger/internal/repository"
	"github.com/kirinyoku/stayledger/internal/repository/memory"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}

type countingListings struct {
	repository.ListingRepo
	gets atomic.Int32
}

func (c *countingListings) Get(ctx context.Context, id domain.Hash) (*domain.Listing, error) {
	c.gets.Add(1)
	return c.ListingRepo.Get(ctx, id)
}

func TestListingCache_Get(t *testing.T) {
	mr, rdb := newClient(t)
	ctx := context.Background()

	store := memory.New()
	listing := &domain.Listing{ID: domain.NewListingID("host", "Loft", "x"), Owner: "host", PricePerNight: 10, CheckinHour: 17, CheckoutHour: 12}
	require.NoError(t, store.Listings().Create(ctx, listing))

	next := &countingListings{ListingRepo: store.Listings()}
	cache := NewListingCache(next, New(rdb), time.Minute)

	for range 3 {
		got, err := cache.Get(ctx, listing.ID)
		require.NoError(t, err)
		assert.Equal(t, *listing, *got)
	}
	assert.Equal(t, int32(1), next.gets.Load())
	assert.True(t, mr.Exists(redisx.KeyListing(listing.ID)))

	_, err := cache.Get(ctx, domain.NewListingID("host", "missing", ""))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListingCache_FallsBackWhenRedisIsDown(t *testing.T) {
	mr, rdb := newClient(t)
	ctx := context.Background()

	store := memory.New()
	listing := &domain.Listing{ID: domain.NewListingID("host", "Loft", "x"), Owner: "host"}
	require.NoError(t, store.Listings().Create(ctx, listing))

	mr.Close()

	got, err := NewListingCache(store.Listings(), New(rdb), time.Minute).Get(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.ID, got.ID)
}

func TestCache_InvalidateListing(t *testing.T) {
	mr, rdb := newClient(t)
	ctx := context.Background()
	c := New(rdb)
	id := domain.NewListingID("host", "Loft", "x")

	require.NoError(t, SetJSON(ctx, c, redisx.KeyListingCalendar(id), []string{"a"}, time.Minute))
	require.NoError(t, c.InvalidateListing(ctx, id))

	assert.False(t, mr.Exists(redisx.KeyListingCalendar(id)))
}

func TestGetOrSetJSON_ReloadsCorruptEntry(t *testing.T) {
	mr, rdb := newClient(t)
	ctx := context.Background()
	c := New(rdb)

	require.NoError(t, mr.Set("k", "{not json"))

	var loads int
	got, err := GetOrSetJSON(ctx, c, "k", time.Minute, func(ctx context.Context) ([]int, error) {
		loads++
		return []int{1, 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, 1, loads)

	stored, err := mr.Get("k")
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, stored)
}

func TestIdempotencyStore_Claim(t *testing.T) {
	_, rdb := newClient(t)
	ctx := context.Background()
	s := NewIdempotencyStore(rdb, time.Hour)
	key := redisx.KeyIdemBooking("guest", "k1")

	_, state, err := s.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ClaimAcquired, state)

	_, state, err = s.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ClaimInProgress, state)

	require.NoError(t, s.SaveResult(ctx, key, `{"booking_id":"0x01"}`))

	payload, state, err := s.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ClaimReplay, state)
	assert.JSONEq(t, `{"booking_id":"0x01"}`, payload)

	require.NoError(t, s.Release(ctx, key))
	_, state, err = s.Claim(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, ClaimAcquired, state)
}

func TestSlidingWindowLimiter_Allow(t *testing.T) {
	_, rdb := newClient(t)
	ctx := context.Background()

	now := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	l := NewSlidingWindowLimiter(rdb, redisx.KeyRateLimit("create"), 2, time.Minute)
	l.now = func() time.Time { return now }

	for i := range 2 {
		ok, current, _, err := l.Allow(ctx, "guest")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(i+1), current)
	}

	ok, _, retry, err := l.Allow(ctx, "guest")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	ok, _, _, err = l.Allow(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSlidingWindowLimiter_WindowSlides(t *testing.T) {
	_, rdb := newClient(t)
	ctx := context.Background()

	now := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	l := NewSlidingWindowLimiter(rdb, redisx.KeyRateLimit("create"), 1, time.Minute)
	l.now = func() time.Time { return now }

	ok, _, _, err := l.Allow(ctx, "guest")
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(30 * time.Second)
	ok, current, retry, err := l.Allow(ctx, "guest")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), current)
	assert.Equal(t, 30*time.Second, retry)

	now = now.Add(31 * time.Second)
	ok, _, _, err = l.Allow(ctx, "guest")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSlidingWindowLimiter_Disabled(t *testing.T) {
	_, rdb := newClient(t)

	ok, _, _, err := NewSlidingWindowLimiter(rdb, "rl", 0, time.Minute).Allow(context.Background(), "guest")
	require.NoError(t, err)
	assert.True(t, ok)
}
