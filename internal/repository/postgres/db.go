package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
)

// maxTxAttempts bounds RunTx retries after serialization failures.
const maxTxAttempts = 3

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Option func(*Store)

// WithExistentialDeposit sets the minimum free balance a keep-alive transfer
// must leave behind.
func WithExistentialDeposit(ed domain.Balance) Option {
	return func(s *Store) {
		s.existentialDeposit = ed
	}
}

type Store struct {
	pool               *pgxpool.Pool
	existentialDeposit domain.Balance
}

var _ repository.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{
		pool:               pool,
		existentialDeposit: 1,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RunTx runs fn inside a SERIALIZABLE transaction. Serialization failures
// and deadlocks restart fn from scratch, so fn must not leak side effects
// outside of tx.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	const op = "postgres.Store.RunTx"

	var err error
	for range maxTxAttempts {
		err = s.runTx(ctx, fn)
		if err == nil || !IsRetryable(err) {
			break
		}
	}
	if err != nil && IsRetryable(err) {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}

	return err
}

func (s *Store) runTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepos{db: tx, ed: s.existentialDeposit}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Store) Bookings() repository.BookingRepo {
	return &BookingRepo{pool: s.pool}
}

func (s *Store) Ledger() repository.Ledger {
	return &LedgerRepo{pool: s.pool, ed: s.existentialDeposit}
}

func (s *Store) Listings() repository.ListingRepo {
	return &ListingRepo{pool: s.pool}
}

type txRepos struct {
	db DB
	ed domain.Balance
}

func (t *txRepos) Bookings() repository.BookingRepo {
	return (&BookingRepo{}).With(t.db)
}

func (t *txRepos) Ledger() repository.Ledger {
	return (&LedgerRepo{ed: t.ed}).With(t.db)
}

func (t *txRepos) Listings() repository.ListingRepo {
	return (&ListingRepo{}).With(t.db)
}

func hashFromBytes(b []byte) (domain.Hash, error) {
	var h domain.Hash
	if len(b) != len(h) {
		return h, fmt.Errorf("stored hash has %d bytes", len(b))
	}
	copy(h[:], b)
	return h, nil
}
