package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
)

// LedgerRepo keeps account balances in accounts and named escrow holds in
// escrow_holds. Every mutation locks the account rows it touches.
type LedgerRepo struct {
	pool *pgxpool.Pool
	db   DB
	ed   domain.Balance
}

func (r *LedgerRepo) With(db DB) *LedgerRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *LedgerRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

type accountRow struct {
	free     domain.Balance
	reserved domain.Balance
}

func (r *LedgerRepo) CanReserve(ctx context.Context, who domain.AccountID, amount domain.Balance) (bool, error) {
	const op = "postgres.LedgerRepo.CanReserve"

	acct, err := r.load(ctx, r.handle(), who, false)
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return acct.free >= amount, nil
}

func (r *LedgerRepo) Reserve(
	ctx context.Context,
	who domain.AccountID,
	holdID domain.Hash,
	amount domain.Balance,
) error {
	const op = "postgres.LedgerRepo.Reserve"

	return r.mutate(ctx, op, func(db DB) error {
		acct, err := r.load(ctx, db, who, true)
		if err != nil {
			return err
		}
		if acct.free < amount {
			return repository.ErrInsufficientFunds
		}

		reserved, ok := add(acct.reserved, amount)
		if !ok {
			return repository.ErrOverflow
		}

		held, err := r.hold(ctx, db, who, holdID)
		if err != nil {
			return err
		}
		if held, ok = add(held, amount); !ok {
			return repository.ErrOverflow
		}

		if err := r.store(ctx, db, who, accountRow{free: acct.free - amount, reserved: reserved}); err != nil {
			return err
		}

		_, err = db.Exec(ctx,
			`INSERT INTO escrow_holds(account, hold_id, amount)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (account, hold_id) DO UPDATE SET amount = EXCLUDED.amount`,
			string(who), holdID[:], uint64(held),
		)
		return err
	})
}

// Unreserve releases at most amount from the named hold and reports what was
// actually released. A missing hold releases nothing.
func (r *LedgerRepo) Unreserve(
	ctx context.Context,
	who domain.AccountID,
	holdID domain.Hash,
	amount domain.Balance,
) (domain.Balance, error) {
	const op = "postgres.LedgerRepo.Unreserve"

	var released domain.Balance
	err := r.mutate(ctx, op, func(db DB) error {
		acct, err := r.load(ctx, db, who, true)
		if err != nil {
			return err
		}

		held, err := r.hold(ctx, db, who, holdID)
		if err != nil {
			return err
		}

		n := min(amount, held, acct.reserved)
		if n == 0 {
			return nil
		}

		free, ok := add(acct.free, n)
		if !ok {
			return repository.ErrOverflow
		}

		if err := r.store(ctx, db, who, accountRow{free: free, reserved: acct.reserved - n}); err != nil {
			return err
		}

		if rest := held - n; rest == 0 {
			_, err = db.Exec(ctx,
				`DELETE FROM escrow_holds WHERE account = $1 AND hold_id = $2`,
				string(who), holdID[:],
			)
		} else {
			_, err = db.Exec(ctx,
				`UPDATE escrow_holds SET amount = $3 WHERE account = $1 AND hold_id = $2`,
				string(who), holdID[:], uint64(rest),
			)
		}
		if err != nil {
			return err
		}

		released = n
		return nil
	})

	return released, err
}

func (r *LedgerRepo) Transfer(
	ctx context.Context,
	from, to domain.AccountID,
	amount domain.Balance,
	keepAlive bool,
) error {
	const op = "postgres.LedgerRepo.Transfer"

	if amount == 0 || from == to {
		return nil
	}

	return r.mutate(ctx, op, func(db DB) error {
		// Lock both accounts in a stable order.
		first, second := from, to
		if second < first {
			first, second = second, first
		}
		if _, err := r.load(ctx, db, first, true); err != nil {
			return err
		}
		if _, err := r.load(ctx, db, second, true); err != nil {
			return err
		}

		src, err := r.load(ctx, db, from, true)
		if err != nil {
			return err
		}
		if src.free < amount {
			return repository.ErrInsufficientFunds
		}
		if keepAlive && src.free-amount < r.ed {
			return repository.ErrKeepAlive
		}

		dst, err := r.load(ctx, db, to, true)
		if err != nil {
			return err
		}
		free, ok := add(dst.free, amount)
		if !ok {
			return repository.ErrOverflow
		}

		src.free -= amount
		dst.free = free

		if err := r.store(ctx, db, from, src); err != nil {
			return err
		}
		return r.store(ctx, db, to, dst)
	})
}

func (r *LedgerRepo) Deposit(ctx context.Context, who domain.AccountID, amount domain.Balance) error {
	const op = "postgres.LedgerRepo.Deposit"

	return r.mutate(ctx, op, func(db DB) error {
		acct, err := r.load(ctx, db, who, true)
		if err != nil {
			return err
		}

		free, ok := add(acct.free, amount)
		if !ok {
			return repository.ErrOverflow
		}
		acct.free = free

		return r.store(ctx, db, who, acct)
	})
}

func (r *LedgerRepo) Balance(ctx context.Context, who domain.AccountID) (domain.AccountBalance, error) {
	const op = "postgres.LedgerRepo.Balance"

	acct, err := r.load(ctx, r.handle(), who, false)
	if err != nil {
		return domain.AccountBalance{}, wrapDBErr(op, err)
	}

	return domain.AccountBalance{Free: acct.free, Reserved: acct.reserved}, nil
}

// mutate runs fn on the bound transaction, or opens a short one when the repo
// is used outside of Store.RunTx.
func (r *LedgerRepo) mutate(ctx context.Context, op string, fn func(db DB) error) error {
	if r.db != nil {
		return wrapDBErr(op, fn(r.db))
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return wrapDBErr(op, err)
	}

	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return wrapDBErr(op, err)
	}

	return wrapDBErr(op, tx.Commit(ctx))
}

// load reads an account, treating a missing row as a zero balance. With
// forUpdate the row is created when missing and locked.
func (r *LedgerRepo) load(ctx context.Context, db DB, who domain.AccountID, forUpdate bool) (accountRow, error) {
	if forUpdate {
		if _, err := db.Exec(ctx,
			`INSERT INTO accounts(account, free, reserved)
			 VALUES ($1, 0, 0)
			 ON CONFLICT (account) DO NOTHING`,
			string(who),
		); err != nil {
			return accountRow{}, err
		}
	}

	query := `SELECT free, reserved FROM accounts WHERE account = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var free, reserved uint64
	err := db.QueryRow(ctx, query, string(who)).Scan(&free, &reserved)
	if errors.Is(err, pgx.ErrNoRows) {
		return accountRow{}, nil
	}
	if err != nil {
		return accountRow{}, err
	}

	return accountRow{free: domain.Balance(free), reserved: domain.Balance(reserved)}, nil
}

func (r *LedgerRepo) store(ctx context.Context, db DB, who domain.AccountID, acct accountRow) error {
	_, err := db.Exec(ctx,
		`UPDATE accounts SET free = $2, reserved = $3 WHERE account = $1`,
		string(who), uint64(acct.free), uint64(acct.reserved),
	)
	return err
}

func (r *LedgerRepo) hold(ctx context.Context, db DB, who domain.AccountID, holdID domain.Hash) (domain.Balance, error) {
	var amount uint64
	err := db.QueryRow(ctx,
		`SELECT amount FROM escrow_holds WHERE account = $1 AND hold_id = $2 FOR UPDATE`,
		string(who), holdID[:],
	).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("hold: %w", err)
	}
	return domain.Balance(amount), nil
}

func add(a, b domain.Balance) (domain.Balance, bool) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	return domain.Balance(sum), carry == 0
}
