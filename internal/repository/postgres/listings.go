package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/stayledger/internal/domain"
)

type ListingRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ListingRepo) With(db DB) *ListingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ListingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *ListingRepo) Get(ctx context.Context, id domain.Hash) (*domain.Listing, error) {
	const op = "postgres.ListingRepo.Get"

	var (
		l     domain.Listing
		price uint64
	)

	err := r.handle().QueryRow(ctx,
		`SELECT owner, name, address, price_per_night, checkin_hour, checkout_hour
		   FROM listings
		  WHERE id = $1`,
		id[:],
	).Scan(&l.Owner, &l.Name, &l.Address, &price, &l.CheckinHour, &l.CheckoutHour)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	l.ID = id
	l.PricePerNight = domain.Balance(price)

	return &l, nil
}

// Create inserts l. A listing with the same id yields repository.ErrConflict.
func (r *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	const op = "postgres.ListingRepo.Create"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO listings(id, owner, name, address, price_per_night, checkin_hour, checkout_hour)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID[:], string(l.Owner), l.Name, l.Address,
		uint64(l.PricePerNight), int32(l.CheckinHour), int32(l.CheckoutHour),
	)

	return wrapDBErr(op, err)
}
