package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
)

type BookingRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *BookingRepo) With(db DB) *BookingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *BookingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *BookingRepo) Get(ctx context.Context, id domain.Hash) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Get"

	var (
		b                  domain.Booking
		listingID          []byte
		start, end, amount uint64
		state              string
	)

	err := r.handle().QueryRow(ctx,
		`SELECT listing_id, host, guest, start_ms, end_ms, amount, state
		   FROM bookings
		  WHERE id = $1`,
		id[:],
	).Scan(&listingID, &b.Host, &b.Guest, &start, &end, &amount, &state)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	lid, err := hashFromBytes(listingID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	b.ID = id
	b.ListingID = lid
	b.Start = domain.Moment(start)
	b.End = domain.Moment(end)
	b.Amount = domain.Balance(amount)
	b.State = domain.BookingState(state)

	return &b, nil
}

func (r *BookingRepo) Exists(ctx context.Context, id domain.Hash) (bool, error) {
	const op = "postgres.BookingRepo.Exists"

	var ok bool
	if err := r.handle().QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`,
		id[:],
	).Scan(&ok); err != nil {
		return false, wrapDBErr(op, err)
	}

	return ok, nil
}

func (r *BookingRepo) Insert(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Insert"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO bookings(id, listing_id, host, guest, start_ms, end_ms, amount, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID[:], b.ListingID[:], string(b.Host), string(b.Guest),
		uint64(b.Start), uint64(b.End), uint64(b.Amount), string(b.State),
	)

	return wrapDBErr(op, err)
}

func (r *BookingRepo) SetState(ctx context.Context, id domain.Hash, state domain.BookingState) error {
	const op = "postgres.BookingRepo.SetState"

	tag, err := r.handle().Exec(ctx,
		`UPDATE bookings SET state = $2 WHERE id = $1`,
		id[:], string(state),
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// AllIDs returns booking ids in insertion order.
func (r *BookingRepo) AllIDs(ctx context.Context) ([]domain.Hash, error) {
	const op = "postgres.BookingRepo.AllIDs"

	rows, err := r.handle().Query(ctx, `SELECT id FROM bookings ORDER BY seq`)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	ids, err := collectHashes(rows)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return ids, nil
}

func (r *BookingRepo) AddActive(ctx context.Context, listingID, id domain.Hash) error {
	const op = "postgres.BookingRepo.AddActive"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO active_bookings(listing_id, booking_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		listingID[:], id[:],
	)

	return wrapDBErr(op, err)
}

func (r *BookingRepo) RemoveActive(ctx context.Context, listingID, id domain.Hash) error {
	const op = "postgres.BookingRepo.RemoveActive"

	tag, err := r.handle().Exec(ctx,
		`DELETE FROM active_bookings WHERE listing_id = $1 AND booking_id = $2`,
		listingID[:], id[:],
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *BookingRepo) ActiveIDs(ctx context.Context, listingID domain.Hash) ([]domain.Hash, error) {
	const op = "postgres.BookingRepo.ActiveIDs"

	rows, err := r.handle().Query(ctx,
		`SELECT booking_id FROM active_bookings WHERE listing_id = $1 ORDER BY booking_id`,
		listingID[:],
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	ids, err := collectHashes(rows)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return ids, nil
}

func (r *BookingRepo) AddPendingWithdrawal(
	ctx context.Context,
	account domain.AccountID,
	w domain.PendingWithdrawal,
) error {
	const op = "postgres.BookingRepo.AddPendingWithdrawal"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO pending_withdrawals(account, booking_id, amount)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (account, booking_id) DO UPDATE SET amount = EXCLUDED.amount`,
		string(account), w.BookingID[:], uint64(w.Amount),
	)

	return wrapDBErr(op, err)
}

func (r *BookingRepo) RemovePendingWithdrawal(
	ctx context.Context,
	account domain.AccountID,
	bookingID domain.Hash,
) (bool, error) {
	const op = "postgres.BookingRepo.RemovePendingWithdrawal"

	tag, err := r.handle().Exec(ctx,
		`DELETE FROM pending_withdrawals WHERE account = $1 AND booking_id = $2`,
		string(account), bookingID[:],
	)
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *BookingRepo) PendingWithdrawals(
	ctx context.Context,
	account domain.AccountID,
) ([]domain.PendingWithdrawal, error) {
	const op = "postgres.BookingRepo.PendingWithdrawals"

	rows, err := r.handle().Query(ctx,
		`SELECT booking_id, amount
		   FROM pending_withdrawals
		  WHERE account = $1
		  ORDER BY booking_id`,
		string(account),
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PendingWithdrawal, error) {
		var (
			raw    []byte
			amount uint64
		)
		if err := row.Scan(&raw, &amount); err != nil {
			return domain.PendingWithdrawal{}, err
		}
		id, err := hashFromBytes(raw)
		if err != nil {
			return domain.PendingWithdrawal{}, err
		}
		return domain.PendingWithdrawal{BookingID: id, Amount: domain.Balance(amount)}, nil
	})
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func collectHashes(rows pgx.Rows) ([]domain.Hash, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Hash, error) {
		var raw []byte
		if err := row.Scan(&raw); err != nil {
			return domain.Hash{}, err
		}
		return hashFromBytes(raw)
	})
}
