package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// Migrate creates the ledger tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	const op = "postgres.Store.Migrate"

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}
