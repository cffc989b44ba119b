package redisx

import (
	"fmt"

	"github.com/kirinyoku/stayledger/internal/domain"
)

const ns = "stayledger:v1"

func KeyListing(listingID domain.Hash) string {
	return fmt.Sprintf("%s:listing:%s", ns, listingID)
}

func KeyListingCalendar(listingID domain.Hash) string {
	return fmt.Sprintf("%s:listing:%s:calendar", ns, listingID)
}

func KeyRateLimit(scope string) string {
	return fmt.Sprintf("%s:rl:%s", ns, scope)
}

func KeyIdemBooking(caller domain.AccountID, idemKey string) string {
	return fmt.Sprintf("%s:idem:bookings:%s:%s", ns, caller, idemKey)
}

func ChannelBookings() string {
	return ns + ":bookings"
}
