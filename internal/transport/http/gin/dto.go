package httpgin

import (
	"github.com/kirinyoku/stayledger/internal/domain"
)

type CreateBookingRequest struct {
	Start  uint64 `json:"start" binding:"required"`
	End    uint64 `json:"end" binding:"required"`
	Amount uint64 `json:"amount" binding:"required"`
}

type UpdateBookingRequest struct {
	Start  uint64 `json:"start"`
	End    uint64 `json:"end"`
	Amount uint64 `json:"amount"`
}

type CreateListingRequest struct {
	Owner         string `json:"owner" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Address       string `json:"address"`
	PricePerNight uint64 `json:"price_per_night"`
	CheckinHour   uint32 `json:"checkin_hour" binding:"required"`
	CheckoutHour  uint32 `json:"checkout_hour" binding:"required"`
}

type DepositRequest struct {
	Amount uint64 `json:"amount" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type CreateBookingResponse struct {
	BookingID domain.Hash `json:"booking_id"`
}

type CommandResponse struct {
	BookingID domain.Hash         `json:"booking_id"`
	State     domain.BookingState `json:"state"`
}

type CreateListingResponse struct {
	ListingID domain.Hash `json:"listing_id"`
}

type AvailabilityResponse struct {
	ListingID domain.Hash   `json:"listing_id"`
	Start     domain.Moment `json:"start"`
	End       domain.Moment `json:"end"`
	Available bool          `json:"available"`
}

type BookingIDsResponse struct {
	BookingIDs []domain.Hash `json:"booking_ids"`
}
