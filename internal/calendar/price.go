package calendar

import (
	"math"
	"math/bits"

	"github.com/kirinyoku/stayledger/internal/domain"
)

const millisPerDay = 86_400_000

// Price returns (whole days between start and end + 1) * pricePerNight.
// A partially consumed final night is billed as a full night. start and end
// are milliseconds.
func Price(start, end domain.Moment, pricePerNight domain.Balance) (domain.Balance, error) {
	elapsed, borrow := bits.Sub64(uint64(end), uint64(start), 0)
	if borrow != 0 {
		return 0, ErrUnderflow
	}

	if elapsed > math.MaxInt64 {
		return 0, ErrOverflow
	}

	days := elapsed / millisPerDay

	nights, carry := bits.Add64(days, 1, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}

	hi, total := bits.Mul64(nights, uint64(pricePerNight))
	if hi != 0 {
		return 0, ErrOverflow
	}

	return domain.Balance(total), nil
}
