package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
)

type BookingRepo struct {
	acc access
}

func (r *BookingRepo) Get(ctx context.Context, id domain.Hash) (*domain.Booking, error) {
	const op = "memory.BookingRepo.Get"

	var out domain.Booking
	err := r.acc.read(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &out, nil
}

func (r *BookingRepo) Exists(ctx context.Context, id domain.Hash) (bool, error) {
	var ok bool
	_ = r.acc.read(func(st *state) error {
		_, ok = st.bookings[id]
		return nil
	})
	return ok, nil
}

func (r *BookingRepo) Insert(ctx context.Context, b *domain.Booking) error {
	const op = "memory.BookingRepo.Insert"

	return r.acc.write(func(st *state) error {
		if _, exists := st.bookings[b.ID]; exists {
			return fmt.Errorf("%s:%w", op, repository.ErrConflict)
		}
		st.bookings[b.ID] = *b
		st.ids = append(st.ids, b.ID)
		return nil
	})
}

func (r *BookingRepo) SetState(ctx context.Context, id domain.Hash, s domain.BookingState) error {
	const op = "memory.BookingRepo.SetState"

	return r.acc.write(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		b.State = s
		st.bookings[id] = b
		return nil
	})
}

func (r *BookingRepo) AllIDs(ctx context.Context) ([]domain.Hash, error) {
	var out []domain.Hash
	_ = r.acc.read(func(st *state) error {
		out = append([]domain.Hash(nil), st.ids...)
		return nil
	})
	return out, nil
}

func (r *BookingRepo) AddActive(ctx context.Context, listingID, id domain.Hash) error {
	return r.acc.write(func(st *state) error {
		set, ok := st.active[listingID]
		if !ok {
			set = make(map[domain.Hash]struct{})
			st.active[listingID] = set
		}
		set[id] = struct{}{}
		return nil
	})
}

func (r *BookingRepo) RemoveActive(ctx context.Context, listingID, id domain.Hash) error {
	const op = "memory.BookingRepo.RemoveActive"

	return r.acc.write(func(st *state) error {
		set := st.active[listingID]
		if _, ok := set[id]; !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		delete(set, id)
		if len(set) == 0 {
			delete(st.active, listingID)
		}
		return nil
	})
}

func (r *BookingRepo) ActiveIDs(ctx context.Context, listingID domain.Hash) ([]domain.Hash, error) {
	var out []domain.Hash
	_ = r.acc.read(func(st *state) error {
		for id := range st.active[listingID] {
			out = append(out, id)
		}
		return nil
	})
	sortHashes(out)
	return out, nil
}

func (r *BookingRepo) AddPendingWithdrawal(
	ctx context.Context,
	account domain.AccountID,
	w domain.PendingWithdrawal,
) error {
	return r.acc.write(func(st *state) error {
		claims, ok := st.pending[account]
		if !ok {
			claims = make(map[domain.Hash]domain.Balance)
			st.pending[account] = claims
		}
		claims[w.BookingID] = w.Amount
		return nil
	})
}

func (r *BookingRepo) RemovePendingWithdrawal(
	ctx context.Context,
	account domain.AccountID,
	bookingID domain.Hash,
) (bool, error) {
	var removed bool
	err := r.acc.write(func(st *state) error {
		claims := st.pending[account]
		if _, ok := claims[bookingID]; !ok {
			return nil
		}
		delete(claims, bookingID)
		if len(claims) == 0 {
			delete(st.pending, account)
		}
		removed = true
		return nil
	})
	return removed, err
}

func (r *BookingRepo) PendingWithdrawals(
	ctx context.Context,
	account domain.AccountID,
) ([]domain.PendingWithdrawal, error) {
	var out []domain.PendingWithdrawal
	_ = r.acc.read(func(st *state) error {
		for id, amount := range st.pending[account] {
			out = append(out, domain.PendingWithdrawal{BookingID: id, Amount: amount})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].BookingID.String() < out[j].BookingID.String()
	})
	return out, nil
}
