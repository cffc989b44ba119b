package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
)

func TestWrapDBErr(t *testing.T) {
	assert.NoError(t, wrapDBErr("op", nil))

	err := wrapDBErr("postgres.BookingRepo.Get", pgx.ErrNoRows)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Contains(t, err.Error(), "postgres.BookingRepo.Get")

	err = wrapDBErr("op", &pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	serialization := &pgconn.PgError{Code: "40001"}
	err = wrapDBErr("op", serialization)
	assert.True(t, IsRetryable(err))
	assert.NotErrorIs(t, err, repository.ErrConflict)

	plain := errors.New("boom")
	assert.ErrorIs(t, wrapDBErr("op", plain), plain)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryable(errors.New("x")))
}

func TestHashFromBytes(t *testing.T) {
	want := domain.NewListingID("host", "Loft", "1 Harbour St")

	got, err := hashFromBytes(want[:])
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = hashFromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}
