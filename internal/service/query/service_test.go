package query

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/stayledger/internal/domain"
	redisx "github.com/kirinyoku/stayledger/internal/redis"
	"github.com/kirinyoku/stayledger/internal/repository/memory"
	redisrepo "github.com/kirinyoku/stayledger/internal/repository/redis"
)

func seed(t *testing.T) (*memory.Store, domain.Listing, []domain.Booking) {
	t.Helper()

	ctx := context.Background()
	store := memory.New()

	listing := domain.Listing{ID: domain.NewListingID("host", "Loft", "x"), Owner: "host", PricePerNight: 10, CheckinHour: 17, CheckoutHour: 12}
	require.NoError(t, store.Listings().Create(ctx, &listing))

	bookings := []domain.Booking{
		{ListingID: listing.ID, Host: "host", Guest: "g1", Start: 3000, End: 4000, Amount: 10, State: domain.BookingCreated},
		{ListingID: listing.ID, Host: "host", Guest: "g2", Start: 1000, End: 2000, Amount: 10, State: domain.BookingConfirmed},
	}
	for i := range bookings {
		b := &bookings[i]
		b.ID = domain.NewBookingID(b.ListingID, b.Host, b.Guest, b.Start, b.End, b.Amount)
		require.NoError(t, store.Bookings().Insert(ctx, b))
		require.NoError(t, store.Bookings().AddActive(ctx, listing.ID, b.ID))
	}

	return store, listing, bookings
}

func TestService_Reads(t *testing.T) {
	store, listing, bookings := seed(t)
	ctx := context.Background()
	svc := New(store, nil, nil, Config{})

	got, err := svc.GetBooking(ctx, bookings[0].ID)
	require.NoError(t, err)
	assert.Equal(t, bookings[0], *got)

	_, err = svc.GetBooking(ctx, domain.Hash{})
	assert.ErrorIs(t, err, ErrBookingNotFound)

	ids, err := svc.BookingIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Hash{bookings[0].ID, bookings[1].ID}, ids)

	_, err = svc.GetListing(ctx, domain.Hash{})
	assert.ErrorIs(t, err, ErrListingNotFound)

	calendar, err := svc.ListingBookings(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Booking{bookings[1], bookings[0]}, calendar)

	pending, err := svc.PendingWithdrawals(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, pending)
	assert.Empty(t, pending)
}

func TestService_ListingBookingsCached(t *testing.T) {
	store, listing, bookings := seed(t)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cache := redisrepo.New(rdb)

	svc := New(store, nil, cache, Config{})

	first, err := svc.ListingBookings(ctx, listing.ID)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.True(t, mr.Exists(redisx.KeyListingCalendar(listing.ID)))

	require.NoError(t, store.Bookings().RemoveActive(ctx, listing.ID, bookings[0].ID))

	stale, err := svc.ListingBookings(ctx, listing.ID)
	require.NoError(t, err)
	assert.Len(t, stale, 2)

	require.NoError(t, cache.InvalidateListing(ctx, listing.ID))

	fresh, err := svc.ListingBookings(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Booking{bookings[1]}, fresh)
}
