package memory

import (
	"context"
	"fmt"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
)

type ListingRepo struct {
	acc access
}

func (r *ListingRepo) Get(ctx context.Context, id domain.Hash) (*domain.Listing, error) {
	const op = "memory.ListingRepo.Get"

	var out domain.Listing
	err := r.acc.read(func(st *state) error {
		l, ok := st.listings[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &out, nil
}

func (r *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	const op = "memory.ListingRepo.Create"

	return r.acc.write(func(st *state) error {
		if _, exists := st.listings[l.ID]; exists {
			return fmt.Errorf("%s:%w", op, repository.ErrConflict)
		}
		st.listings[l.ID] = *l
		return nil
	})
}
