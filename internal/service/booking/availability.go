package booking

import (
	"cmp"
	"context"
	"errors"
	"fmt"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
)

// Conflicts reports whether the candidate interval [start, end] collides with
// an existing booking. Only three relations count as a collision: the
// candidate strictly contains the existing interval, equals it, or lies
// strictly inside it. Partial overlaps are accepted.
func Conflicts(start, end domain.Moment, existing *domain.Booking) bool {
	s := cmp.Compare(start, existing.Start)
	e := cmp.Compare(end, existing.End)

	switch {
	case s < 0 && e > 0:
		return true
	case s == 0 && e == 0:
		return true
	case s > 0 && e < 0:
		return true
	}

	return false
}

// available checks the candidate against every active booking of the
// listing. Bookings still awaiting host approval never block.
func available(
	ctx context.Context,
	bookings repository.BookingRepo,
	listingID domain.Hash,
	start, end domain.Moment,
) (bool, error) {
	const op = "service.booking.available"

	ids, err := bookings.ActiveIDs(ctx, listingID)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, err)
	}

	for _, id := range ids {
		b, err := bookings.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return false, fmt.Errorf("%s:%w", op, err)
		}

		if b.State == domain.BookingCreated {
			continue
		}

		if Conflicts(start, end, b) {
			return false, nil
		}
	}

	return true, nil
}

// overlapping returns the active bookings of the listing, other than except,
// that collide with [start, end] regardless of their state.
func overlapping(
	ctx context.Context,
	bookings repository.BookingRepo,
	listingID, except domain.Hash,
	start, end domain.Moment,
) ([]*domain.Booking, error) {
	const op = "service.booking.overlapping"

	ids, err := bookings.ActiveIDs(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var out []*domain.Booking
	for _, id := range ids {
		if id == except {
			continue
		}

		b, err := bookings.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("%s:%w", op, err)
		}

		if Conflicts(start, end, b) {
			out = append(out, b)
		}
	}

	return out, nil
}
