package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/stayledger/internal/clock"
	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
	postgresrepo "github.com/kirinyoku/stayledger/internal/repository/postgres"
	"github.com/kirinyoku/stayledger/internal/service/booking"
)

// newStore migrates a fresh schema on the database named by
// STAYLEDGER_TEST_POSTGRES_DSN and drops it when the test ends.
func newStore(t *testing.T, opts ...postgresrepo.Option) *postgresrepo.Store {
	t.Helper()

	dsn := os.Getenv("STAYLEDGER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STAYLEDGER_TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	schema := fmt.Sprintf("stayledger_test_%d", time.Now().UnixNano())

	admin, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		_ = admin.Close(context.Background())
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := postgresrepo.NewStore(pool, opts...)
	require.NoError(t, store.Migrate(ctx))

	return store
}

func hash(b byte) domain.Hash {
	var h domain.Hash
	h[0] = b
	return h
}

func TestStore_RunTxRollsBackOnError(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.RunTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		require.NoError(t, tx.Ledger().Deposit(ctx, "alice", 50))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	bal, err := store.Ledger().Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountBalance{}, bal)
}

func TestLedgerRepo_NamedHolds(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	ledger := store.Ledger()

	require.NoError(t, ledger.Deposit(ctx, "alice", 100))
	require.NoError(t, ledger.Reserve(ctx, "alice", hash(1), 30))
	require.NoError(t, ledger.Reserve(ctx, "alice", hash(2), 20))
	assert.ErrorIs(t, ledger.Reserve(ctx, "alice", hash(3), 51), repository.ErrInsufficientFunds)

	released, err := ledger.Unreserve(ctx, "alice", hash(1), 30)
	require.NoError(t, err)
	assert.Equal(t, domain.Balance(30), released)

	released, err = ledger.Unreserve(ctx, "alice", hash(1), 30)
	require.NoError(t, err)
	assert.Zero(t, released)

	bal, err := ledger.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountBalance{Free: 80, Reserved: 20}, bal)
}

func TestLedgerRepo_TransferKeepAlive(t *testing.T) {
	store := newStore(t, postgresrepo.WithExistentialDeposit(5))
	ctx := context.Background()
	ledger := store.Ledger()

	require.NoError(t, ledger.Deposit(ctx, "alice", 10))

	assert.ErrorIs(t, ledger.Transfer(ctx, "alice", "bob", 6, true), repository.ErrKeepAlive)
	assert.ErrorIs(t, ledger.Transfer(ctx, "alice", "bob", 11, false), repository.ErrInsufficientFunds)
	require.NoError(t, ledger.Transfer(ctx, "alice", "bob", 5, true))

	alice, err := ledger.Balance(ctx, "alice")
	require.NoError(t, err)
	bob, err := ledger.Balance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.Balance(5), alice.Free)
	assert.Equal(t, domain.Balance(5), bob.Free)
}

func TestBookingRepo_Indices(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	listing := &domain.Listing{ID: domain.NewListingID("host", "Loft", "x"), Owner: "host", PricePerNight: 10, CheckinHour: 17, CheckoutHour: 12}
	require.NoError(t, store.Listings().Create(ctx, listing))
	assert.ErrorIs(t, store.Listings().Create(ctx, listing), repository.ErrConflict)

	bookings := store.Bookings()
	b := &domain.Booking{ID: hash(9), ListingID: listing.ID, Host: "host", Guest: "guest", Start: 1, End: 2, Amount: 10, State: domain.BookingCreated}
	require.NoError(t, bookings.Insert(ctx, b))
	assert.ErrorIs(t, bookings.Insert(ctx, b), repository.ErrConflict)

	got, err := bookings.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, *b, *got)

	require.NoError(t, bookings.AddActive(ctx, listing.ID, b.ID))
	ids, err := bookings.ActiveIDs(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.Hash{b.ID}, ids)

	require.NoError(t, bookings.RemoveActive(ctx, listing.ID, b.ID))
	assert.ErrorIs(t, bookings.RemoveActive(ctx, listing.ID, b.ID), repository.ErrNotFound)
	assert.ErrorIs(t, bookings.SetState(ctx, hash(8), domain.BookingConfirmed), repository.ErrNotFound)

	_, err = bookings.Get(ctx, hash(8))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_BookingLifecycle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	at := func(d, hour int) domain.Moment {
		return domain.MomentFromTime(time.Date(2030, time.January, d, hour, 0, 0, 0, time.UTC))
	}

	listing := &domain.Listing{ID: domain.NewListingID("host", "Loft", "x"), Owner: "host", PricePerNight: 10, CheckinHour: 17, CheckoutHour: 12}
	require.NoError(t, store.Listings().Create(ctx, listing))
	require.NoError(t, store.Ledger().Deposit(ctx, "guest", 100))

	clk := clock.NewManual(at(1, 9))
	svc := booking.New(booking.Deps{Store: store, Clock: clk})

	id, err := svc.Create(ctx, "guest", booking.CreateParams{ListingID: listing.ID, Start: at(10, 0), End: at(13, 0), Amount: 30})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "guest", booking.CreateParams{ListingID: listing.ID, Start: at(10, 0), End: at(13, 0), Amount: 30})
	assert.ErrorIs(t, err, booking.ErrBookingAlreadyExists)

	_, err = svc.Confirm(ctx, "host", id)
	require.NoError(t, err)

	clk.Set(at(11, 0))
	_, err = svc.Checkin(ctx, "guest", id)
	require.NoError(t, err)

	_, err = svc.Withdraw(ctx, "host", id)
	require.NoError(t, err)

	b, err := store.Bookings().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, b.State)

	guestBal, err := store.Ledger().Balance(ctx, "guest")
	require.NoError(t, err)
	hostBal, err := store.Ledger().Balance(ctx, "host")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountBalance{Free: 70}, guestBal)
	assert.Equal(t, domain.AccountBalance{Free: 30}, hostBal)

	pending, err := store.Bookings().PendingWithdrawals(ctx, "host")
	require.NoError(t, err)
	assert.Empty(t, pending)
}
