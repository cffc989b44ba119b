package domain

import (
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// Hash is a 32-byte content-addressed identifier.
type Hash [32]byte

var ErrInvalidHash = errors.New("invalid hash")

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(b []byte) error {
	parsed, err := ParseHash(string(b))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash accepts a 64 character hex string with an optional 0x prefix.
func ParseHash(s string) (Hash, error) {
	var h Hash

	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != hex.EncodedLen(len(h)) {
		return h, ErrInvalidHash
	}

	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, ErrInvalidHash
	}

	return h, nil
}

type AccountID string

// Moment is an instant expressed as Unix seconds or Unix milliseconds.
// Persisted booking boundaries are always milliseconds.
type Moment uint64

func (m Moment) Time() time.Time {
	return time.UnixMilli(int64(m)).UTC()
}

func MomentFromTime(t time.Time) Moment {
	return Moment(t.UnixMilli())
}

type Balance uint64

type BookingState string

const (
	BookingCreated          BookingState = "created"
	BookingConfirmed        BookingState = "confirmed"
	BookingRejected         BookingState = "rejected"
	BookingWithdrawable     BookingState = "withdrawable"
	BookingUserCanWithdraw  BookingState = "user_can_withdraw"
	BookingOwnerCanWithdraw BookingState = "owner_can_withdraw"
	BookingCompleted        BookingState = "completed"
)

func (s BookingState) Valid() bool {
	switch s {
	case BookingCreated, BookingConfirmed, BookingRejected, BookingWithdrawable,
		BookingUserCanWithdraw, BookingOwnerCanWithdraw, BookingCompleted:
		return true
	}
	return false
}

type Booking struct {
	ID        Hash         `json:"id"`
	ListingID Hash         `json:"listing_id"`
	Host      AccountID    `json:"host"`
	Guest     AccountID    `json:"guest"`
	Start     Moment       `json:"start"`
	End       Moment       `json:"end"`
	Amount    Balance      `json:"amount"`
	State     BookingState `json:"state"`
}

type Listing struct {
	ID            Hash      `json:"id"`
	Owner         AccountID `json:"owner"`
	Name          string    `json:"name"`
	Address       string    `json:"address"`
	PricePerNight Balance   `json:"price_per_night"`
	CheckinHour   uint32    `json:"checkin_hour"`
	CheckoutHour  uint32    `json:"checkout_hour"`
}

// PendingWithdrawal is a claim an account may settle for a booking.
type PendingWithdrawal struct {
	BookingID Hash    `json:"booking_id"`
	Amount    Balance `json:"amount"`
}

type AccountBalance struct {
	Free     Balance `json:"free"`
	Reserved Balance `json:"reserved"`
}

type NotificationEvent string

const (
	EventBookingPlaced    NotificationEvent = "booking.placed"
	EventBookingConfirmed NotificationEvent = "booking.confirmed"
	EventBookingRejected  NotificationEvent = "booking.rejected"
	EventBookingCheckedIn NotificationEvent = "booking.checked_in"
	EventBookingWithdrawn NotificationEvent = "booking.withdrawn"
)

// Notification is published after a state-changing command commits.
type Notification struct {
	Event     NotificationEvent `json:"event"`
	BookingID Hash              `json:"booking_id"`
	ListingID Hash              `json:"listing_id"`
	Caller    AccountID         `json:"caller"`
	State     BookingState      `json:"state"`
	At        time.Time         `json:"at"`
}
