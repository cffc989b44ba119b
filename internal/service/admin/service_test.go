package admin

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository/memory"
)

func TestService_CreateListing(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	p := CreateListingParams{Name: "Loft", Address: "1 Harbour St", PricePerNight: 10, CheckinHour: 17, CheckoutHour: 12}

	id, err := svc.CreateListing(ctx, "host", p)
	require.NoError(t, err)
	assert.Equal(t, domain.NewListingID("host", "Loft", "1 Harbour St"), id)

	got, err := store.Listings().Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountID("host"), got.Owner)
	assert.Equal(t, uint32(17), got.CheckinHour)

	_, err = svc.CreateListing(ctx, "host", p)
	assert.ErrorIs(t, err, ErrListingConflict)

	_, err = svc.CreateListing(ctx, "someone-else", p)
	assert.NoError(t, err)
}

func TestService_CreateListingHours(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	tests := []struct {
		name              string
		checkin, checkout uint32
		wantErr           error
	}{
		{"checkout equals checkin", 12, 12, ErrCheckoutAfterCheckin},
		{"checkout after checkin", 10, 12, ErrCheckoutAfterCheckin},
		{"checkout at midnight", 17, 0, ErrBadHours},
		{"checkin past day end", 24, 12, ErrBadHours},
		{"valid", 23, 1, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateListing(ctx, "host", CreateListingParams{
				Name:         tt.name,
				CheckinHour:  tt.checkin,
				CheckoutHour: tt.checkout,
			})
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Deposit(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	bal, err := svc.Deposit(ctx, "guest", 40)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountBalance{Free: 40}, bal)

	_, err = svc.Deposit(ctx, "guest", 0)
	assert.ErrorIs(t, err, ErrInvalidDeposit)

	_, err = svc.Deposit(ctx, "guest", math.MaxUint64)
	assert.ErrorIs(t, err, ErrBalanceOverflow)
}
