package uow

import (
	"context"

	"github.com/kirinyoku/stayledger/internal/repository"
)

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// UoW represents a unit of work.
type UoW struct {
	store repository.Store
}

func NewUoW(store repository.Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn inside the transaction. After a successful commit,
// it executes all after-commit hooks in registration order. Hooks registered
// by a failed attempt are discarded. Hooks still run when ctx is canceled
// after the commit.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Tx, after func(AfterCommit)) error,
) error {
	var hooks []AfterCommit

	err := u.store.RunTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		hooks = hooks[:0]
		return fn(ctx, tx, func(h AfterCommit) {
			hooks = append(hooks, h)
		})
	})
	if err != nil {
		return err
	}

	hookCtx := context.WithoutCancel(ctx)
	for _, h := range hooks {
		h(hookCtx)
	}

	return nil
}
