package booking

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
)

func TestConflicts(t *testing.T) {
	existing := &domain.Booking{Start: 10, End: 13}

	tests := []struct {
		name       string
		start, end domain.Moment
		want       bool
	}{
		{"strictly contained", 11, 12, true},
		{"exact match", 10, 13, true},
		{"strictly containing", 9, 14, true},
		{"partial overlap after", 12, 15, false},
		{"partial overlap before", 8, 11, false},
		{"shared start", 10, 12, false},
		{"shared end", 11, 13, false},
		{"disjoint", 14, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Conflicts(tt.start, tt.end, existing))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindValidation, KindOf(&AmountMismatchError{Expected: 2, Provided: 1}))
	assert.Equal(t, KindRateLimited, KindOf(&RateLimitedError{}))
	assert.Equal(t, "authorization", KindOf(ErrNotListingGuest).String())
	assert.ErrorIs(t, &AmountMismatchError{Expected: 1, Provided: 2}, ErrAmountTooHigh)
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "joined ledger cause is hidden",
			err:  fmt.Errorf("service.booking.Withdraw:%w", fmt.Errorf("%w: %w", ErrTransferFailed, fmt.Errorf("memory.Ledger.Transfer:%w", repository.ErrKeepAlive))),
			want: "transfer failed",
		},
		{
			name: "joined store cause is hidden",
			err:  fmt.Errorf("service.booking.Confirm:%w", translateStoreErr(fmt.Errorf("postgres.Store.RunTx:%w", repository.ErrConflict))),
			want: ErrConcurrentUpdate.Error(),
		},
		{
			name: "operation prefix is stripped",
			err:  fmt.Errorf("service.booking.Create:%w", ErrDatesNotAvailable),
			want: ErrDatesNotAvailable.Error(),
		},
		{
			name: "amount mismatch keeps the expected amount",
			err:  fmt.Errorf("service.booking.Create:%w", &AmountMismatchError{Expected: 30, Provided: 29}),
			want: "amount mismatch: expected 30, provided 29",
		},
		{
			name: "unknown errors pass through",
			err:  errors.New("boom"),
			want: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}
