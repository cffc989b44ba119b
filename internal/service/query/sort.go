package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/kirinyoku/stayledger/internal/domain"
)

func sortByStart(bookings []domain.Booking) {
	slices.SortFunc(bookings, func(a, b domain.Booking) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}
