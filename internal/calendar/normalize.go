// Package calendar aligns booking boundaries to a listing's check-in and
// check-out hours and prices the resulting stay.
package calendar

import (
	"errors"
	"math/bits"
	"time"

	"github.com/kirinyoku/stayledger/internal/domain"
)

var (
	ErrInvalidHour  = errors.New("desired hour out of range")
	ErrBadPrecision = errors.New("timestamp precision is neither seconds nor milliseconds")
	ErrOverflow     = errors.New("arithmetic overflow")
	ErrUnderflow    = errors.New("arithmetic underflow")
)

const (
	secondsDigits      = 10
	millisecondsDigits = 13
)

// Normalize rewrites the hour of instant to hour and truncates minutes,
// seconds and sub-second parts. The input must be expressed in Unix seconds
// (10 digits) or Unix milliseconds (13 digits). The result is always in
// milliseconds.
func Normalize(instant domain.Moment, hour uint32) (domain.Moment, error) {
	if hour > 23 {
		return 0, ErrInvalidHour
	}

	ms, err := toMillis(instant)
	if err != nil {
		return 0, err
	}

	t := time.UnixMilli(int64(ms)).UTC()
	aligned := time.Date(t.Year(), t.Month(), t.Day(), int(hour), 0, 0, 0, time.UTC)

	return domain.Moment(aligned.UnixMilli()), nil
}

func toMillis(instant domain.Moment) (uint64, error) {
	v := uint64(instant)

	switch digits(v) {
	case secondsDigits:
		hi, lo := bits.Mul64(v, 1000)
		if hi != 0 {
			return 0, ErrOverflow
		}
		return lo, nil
	case millisecondsDigits:
		return v, nil
	default:
		return 0, ErrBadPrecision
	}
}

func digits(n uint64) int {
	if n == 0 {
		return 1
	}

	d := 0
	for n > 0 {
		d++
		n /= 10
	}

	return d
}
