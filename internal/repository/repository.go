package repository

import (
	"context"

	"github.com/kirinyoku/stayledger/internal/domain"
)

// BookingRepo holds booking records and their secondary indices: the
// append-only log of all ids, the per-listing active set and the per-account
// pending withdrawals.
type BookingRepo interface {
	Get(ctx context.Context, id domain.Hash) (*domain.Booking, error)
	Exists(ctx context.Context, id domain.Hash) (bool, error)
	Insert(ctx context.Context, b *domain.Booking) error
	SetState(ctx context.Context, id domain.Hash, state domain.BookingState) error
	AllIDs(ctx context.Context) ([]domain.Hash, error)

	AddActive(ctx context.Context, listingID, id domain.Hash) error
	RemoveActive(ctx context.Context, listingID, id domain.Hash) error
	ActiveIDs(ctx context.Context, listingID domain.Hash) ([]domain.Hash, error)

	AddPendingWithdrawal(ctx context.Context, account domain.AccountID, w domain.PendingWithdrawal) error
	RemovePendingWithdrawal(ctx context.Context, account domain.AccountID, bookingID domain.Hash) (bool, error)
	PendingWithdrawals(ctx context.Context, account domain.AccountID) ([]domain.PendingWithdrawal, error)
}

// Ledger is the escrow ledger. Reserves are named by a hold id so that each
// booking's escrow can be released exactly once.
type Ledger interface {
	CanReserve(ctx context.Context, account domain.AccountID, amount domain.Balance) (bool, error)
	Reserve(ctx context.Context, account domain.AccountID, holdID domain.Hash, amount domain.Balance) error
	Unreserve(ctx context.Context, account domain.AccountID, holdID domain.Hash, amount domain.Balance) (domain.Balance, error)
	Transfer(ctx context.Context, from, to domain.AccountID, amount domain.Balance, keepAlive bool) error
	Deposit(ctx context.Context, account domain.AccountID, amount domain.Balance) error
	Balance(ctx context.Context, account domain.AccountID) (domain.AccountBalance, error)
}

type ListingRepo interface {
	Get(ctx context.Context, id domain.Hash) (*domain.Listing, error)
	Create(ctx context.Context, l *domain.Listing) error
}

// Tx exposes repositories bound to one transaction.
type Tx interface {
	Bookings() BookingRepo
	Ledger() Ledger
	Listings() ListingRepo
}

// Store is the backing storage. RunTx commits only when fn returns nil;
// otherwise no mutation made through tx survives.
type Store interface {
	Tx
	RunTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
