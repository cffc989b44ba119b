package admin

import (
	"errors"
)

var (
	ErrBadHours             = errors.New("checkin and checkout hours must be within 1..23")
	ErrCheckoutAfterCheckin = errors.New("checkout hour must be earlier than checkin hour")
	ErrListingConflict      = errors.New("listing already exists")
	ErrInvalidListing       = errors.New("listing name is required")
	ErrInvalidDeposit       = errors.New("deposit amount must be positive")
	ErrBalanceOverflow      = errors.New("deposit overflows account balance")
)
