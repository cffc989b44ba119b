// Package memory implements repository.Store in process memory. Transactions
// run one at a time against a private copy of the state which replaces the
// committed state only when the transaction function succeeds.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
)

type account struct {
	free     domain.Balance
	reserved domain.Balance
}

type holdKey struct {
	account domain.AccountID
	hold    domain.Hash
}

type state struct {
	bookings map[domain.Hash]domain.Booking
	ids      []domain.Hash
	active   map[domain.Hash]map[domain.Hash]struct{}
	pending  map[domain.AccountID]map[domain.Hash]domain.Balance
	accounts map[domain.AccountID]account
	holds    map[holdKey]domain.Balance
	listings map[domain.Hash]domain.Listing
}

func newState() *state {
	return &state{
		bookings: make(map[domain.Hash]domain.Booking),
		active:   make(map[domain.Hash]map[domain.Hash]struct{}),
		pending:  make(map[domain.AccountID]map[domain.Hash]domain.Balance),
		accounts: make(map[domain.AccountID]account),
		holds:    make(map[holdKey]domain.Balance),
		listings: make(map[domain.Hash]domain.Listing),
	}
}

func (s *state) clone() *state {
	cp := &state{
		bookings: make(map[domain.Hash]domain.Booking, len(s.bookings)),
		ids:      append([]domain.Hash(nil), s.ids...),
		active:   make(map[domain.Hash]map[domain.Hash]struct{}, len(s.active)),
		pending:  make(map[domain.AccountID]map[domain.Hash]domain.Balance, len(s.pending)),
		accounts: make(map[domain.AccountID]account, len(s.accounts)),
		holds:    make(map[holdKey]domain.Balance, len(s.holds)),
		listings: make(map[domain.Hash]domain.Listing, len(s.listings)),
	}

	for k, v := range s.bookings {
		cp.bookings[k] = v
	}
	for k, set := range s.active {
		inner := make(map[domain.Hash]struct{}, len(set))
		for id := range set {
			inner[id] = struct{}{}
		}
		cp.active[k] = inner
	}
	for k, claims := range s.pending {
		inner := make(map[domain.Hash]domain.Balance, len(claims))
		for id, amount := range claims {
			inner[id] = amount
		}
		cp.pending[k] = inner
	}
	for k, v := range s.accounts {
		cp.accounts[k] = v
	}
	for k, v := range s.holds {
		cp.holds[k] = v
	}
	for k, v := range s.listings {
		cp.listings[k] = v
	}

	return cp
}

// access runs fn against either the committed state (taking the store lock)
// or a transaction's working copy (already exclusive).
type access interface {
	read(fn func(st *state) error) error
	write(fn func(st *state) error) error
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
	mu                 sync.RWMutex
	st                 *state
	existentialDeposit domain.Balance
}

var _ repository.Store = (*Store)(nil)

func New(opts ...Option) *Store {
	s := &Store{st: newState(), existentialDeposit: 1}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

func (s *Store) write(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) Bookings() repository.BookingRepo { return &BookingRepo{acc: s} }
func (s *Store) Ledger() repository.Ledger        { return &Ledger{acc: s, ed: s.existentialDeposit} }
func (s *Store) Listings() repository.ListingRepo { return &ListingRepo{acc: s} }

// RunTx executes fn against a private copy of the state and commits it when
// fn returns nil.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.st.clone()
	if err := fn(ctx, &tx{st: working, ed: s.existentialDeposit}); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.st = working

	return nil
}

type tx struct {
	st *state
	ed domain.Balance
}

func (t *tx) read(fn func(st *state) error) error  { return fn(t.st) }
func (t *tx) write(fn func(st *state) error) error { return fn(t.st) }

func (t *tx) Bookings() repository.BookingRepo { return &BookingRepo{acc: t} }
func (t *tx) Ledger() repository.Ledger        { return &Ledger{acc: t, ed: t.ed} }
func (t *tx) Listings() repository.ListingRepo { return &ListingRepo{acc: t} }

func sortHashes(ids []domain.Hash) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
