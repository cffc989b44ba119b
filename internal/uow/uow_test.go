package uow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
	"github.com/kirinyoku/stayledger/internal/repository/memory"
)

func TestUoW_HooksRunAfterCommit(t *testing.T) {
	store := memory.New()
	u := NewUoW(store)
	ctx := context.Background()

	var seen domain.AccountBalance
	err := u.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(AfterCommit)) error {
		if err := tx.Ledger().Deposit(ctx, "alice", 50); err != nil {
			return err
		}
		after(func(ctx context.Context) {
			seen, _ = store.Ledger().Balance(ctx, "alice")
		})
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Balance(50), seen.Free)
}

func TestUoW_FailureSkipsHooksAndRollsBack(t *testing.T) {
	store := memory.New()
	u := NewUoW(store)
	ctx := context.Background()
	boom := errors.New("boom")

	called := false
	err := u.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(AfterCommit)) error {
		require.NoError(t, tx.Ledger().Deposit(ctx, "alice", 50))
		after(func(context.Context) { called = true })
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.False(t, called)

	bal, err := store.Ledger().Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, bal.Free)
}
