package query

import (
	"errors"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrListingNotFound = errors.New("listing not found")
)
