package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
)

var (
	ErrInvalidDates     = errors.New("end date must be after start date")
	ErrInvalidStartDate = errors.New("start date must be in the future")
	ErrInvalidHour      = errors.New("hour of day out of range")
	ErrBadPrecision     = errors.New("timestamp must be expressed in seconds or milliseconds")
	ErrAmountTooLow     = errors.New("amount provided is less than required")
	ErrAmountTooHigh    = errors.New("amount provided exceeds the requested one")

	ErrDatesNotAvailable      = errors.New("booking dates are not available")
	ErrBookingAlreadyExists   = errors.New("booking already exists")
	ErrCannotBookOwnedListing = errors.New("owner cannot book its own listing")
	ErrConcurrentUpdate       = errors.New("concurrent update, resubmit the command")

	ErrNotListingOwner = errors.New("caller is not the listing owner")
	ErrNotListingGuest = errors.New("caller is not the booking guest")

	ErrWrongState                   = errors.New("booking is in the wrong state")
	ErrCannotConfirmOutdatedBooking = errors.New("cannot confirm a booking whose start has passed")
	ErrCheckinNotAvailableYet       = errors.New("checkin is not available yet")

	ErrBookingNotFound = errors.New("booking not found")
	ErrListingNotFound = errors.New("listing not found")

	ErrNotEnoughFreeBalance = errors.New("not enough free balance")
	ErrArithmeticOverflow   = errors.New("arithmetic overflow")
	ErrArithmeticUnderflow  = errors.New("arithmetic underflow")
	ErrTransferFailed       = errors.New("transfer failed")

	ErrNotSupported   = errors.New("operation not supported")
	ErrNotImplemented = errors.New("refund policy not implemented")

	ErrRateLimited = errors.New("rate limited")
)

// AmountMismatchError reports a submitted amount that differs from the price
// computed for the normalized stay.
type AmountMismatchError struct {
	Expected domain.Balance
	Provided domain.Balance
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch: expected %d, provided %d", e.Expected, e.Provided)
}

func (e *AmountMismatchError) Unwrap() error {
	if e.Provided < e.Expected {
		return ErrAmountTooLow
	}
	return ErrAmountTooHigh
}

type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

// Kind classifies a command failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindAuthorization
	KindState
	KindNotFound
	KindFinancial
	KindNotSupported
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindNotFound:
		return "not_found"
	case KindFinancial:
		return "financial"
	case KindNotSupported:
		return "not_supported"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

var kinds = []struct {
	kind Kind
	errs []error
}{
	{KindValidation, []error{ErrInvalidDates, ErrInvalidStartDate, ErrInvalidHour, ErrBadPrecision, ErrAmountTooLow, ErrAmountTooHigh}},
	{KindConflict, []error{ErrDatesNotAvailable, ErrBookingAlreadyExists, ErrCannotBookOwnedListing, ErrConcurrentUpdate}},
	{KindAuthorization, []error{ErrNotListingOwner, ErrNotListingGuest}},
	{KindState, []error{ErrWrongState, ErrCannotConfirmOutdatedBooking, ErrCheckinNotAvailableYet}},
	{KindNotFound, []error{ErrBookingNotFound, ErrListingNotFound}},
	{KindFinancial, []error{ErrNotEnoughFreeBalance, ErrArithmeticOverflow, ErrArithmeticUnderflow, ErrTransferFailed}},
	{KindNotSupported, []error{ErrNotSupported, ErrNotImplemented}},
	{KindRateLimited, []error{ErrRateLimited}},
}

// KindOf returns the kind of the first booking sentinel found in err's chain.
func KindOf(err error) Kind {
	kind, _ := classify(err)
	return kind
}

// Message returns the caller-facing text of a booking error: the typed error
// when one carries data, otherwise the matched sentinel. Store and ledger
// causes joined to the sentinel are left out.
func Message(err error) string {
	var mismatch *AmountMismatchError
	if errors.As(err, &mismatch) {
		return mismatch.Error()
	}

	var limited *RateLimitedError
	if errors.As(err, &limited) {
		return limited.Error()
	}

	if _, sentinel := classify(err); sentinel != nil {
		return sentinel.Error()
	}

	return err.Error()
}

func classify(err error) (Kind, error) {
	if err == nil {
		return KindUnknown, nil
	}

	for _, k := range kinds {
		for _, target := range k.errs {
			if errors.Is(err, target) {
				return k.kind, target
			}
		}
	}

	return KindUnknown, nil
}

// translateLedgerErr maps escrow ledger failures onto booking errors.
func translateLedgerErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrInsufficientFunds):
		return ErrNotEnoughFreeBalance
	case errors.Is(err, repository.ErrOverflow):
		return ErrArithmeticOverflow
	case errors.Is(err, repository.ErrConflict):
		return ErrConcurrentUpdate
	}
	return err
}
