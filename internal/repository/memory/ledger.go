package memory

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
)

type Ledger struct {
	acc access
	ed  domain.Balance
}

func (l *Ledger) CanReserve(ctx context.Context, who domain.AccountID, amount domain.Balance) (bool, error) {
	var ok bool
	_ = l.acc.read(func(st *state) error {
		ok = st.accounts[who].free >= amount
		return nil
	})
	return ok, nil
}

func (l *Ledger) Reserve(
	ctx context.Context,
	who domain.AccountID,
	holdID domain.Hash,
	amount domain.Balance,
) error {
	const op = "memory.Ledger.Reserve"

	return l.acc.write(func(st *state) error {
		acct := st.accounts[who]
		if acct.free < amount {
			return fmt.Errorf("%s:%w", op, repository.ErrInsufficientFunds)
		}

		reserved, ok := add(acct.reserved, amount)
		if !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrOverflow)
		}

		key := holdKey{account: who, hold: holdID}
		held, ok := add(st.holds[key], amount)
		if !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrOverflow)
		}

		acct.free -= amount
		acct.reserved = reserved
		st.accounts[who] = acct
		st.holds[key] = held

		return nil
	})
}

func (l *Ledger) Unreserve(
	ctx context.Context,
	who domain.AccountID,
	holdID domain.Hash,
	amount domain.Balance,
) (domain.Balance, error) {
	const op = "memory.Ledger.Unreserve"

	var released domain.Balance
	err := l.acc.write(func(st *state) error {
		key := holdKey{account: who, hold: holdID}
		acct := st.accounts[who]

		n := min(amount, st.holds[key], acct.reserved)
		if n == 0 {
			return nil
		}

		free, ok := add(acct.free, n)
		if !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrOverflow)
		}

		acct.free = free
		acct.reserved -= n
		st.accounts[who] = acct

		if rest := st.holds[key] - n; rest == 0 {
			delete(st.holds, key)
		} else {
			st.holds[key] = rest
		}

		released = n
		return nil
	})

	return released, err
}

func (l *Ledger) Transfer(
	ctx context.Context,
	from, to domain.AccountID,
	amount domain.Balance,
	keepAlive bool,
) error {
	const op = "memory.Ledger.Transfer"

	return l.acc.write(func(st *state) error {
		if amount == 0 || from == to {
			return nil
		}

		src := st.accounts[from]
		if src.free < amount {
			return fmt.Errorf("%s:%w", op, repository.ErrInsufficientFunds)
		}
		if keepAlive && src.free-amount < l.ed {
			return fmt.Errorf("%s:%w", op, repository.ErrKeepAlive)
		}

		dst := st.accounts[to]
		free, ok := add(dst.free, amount)
		if !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrOverflow)
		}

		src.free -= amount
		dst.free = free
		st.accounts[from] = src
		st.accounts[to] = dst

		return nil
	})
}

func (l *Ledger) Deposit(ctx context.Context, who domain.AccountID, amount domain.Balance) error {
	const op = "memory.Ledger.Deposit"

	return l.acc.write(func(st *state) error {
		acct := st.accounts[who]
		free, ok := add(acct.free, amount)
		if !ok {
			return fmt.Errorf("%s:%w", op, repository.ErrOverflow)
		}
		acct.free = free
		st.accounts[who] = acct
		return nil
	})
}

func (l *Ledger) Balance(ctx context.Context, who domain.AccountID) (domain.AccountBalance, error) {
	var out domain.AccountBalance
	_ = l.acc.read(func(st *state) error {
		acct := st.accounts[who]
		out = domain.AccountBalance{Free: acct.free, Reserved: acct.reserved}
		return nil
	})
	return out, nil
}

func add(a, b domain.Balance) (domain.Balance, bool) {
	sum, carry := bits.Add64(uint64(a), uint64(b), 0)
	return domain.Balance(sum), carry == 0
}
