package calendar

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/stayledger/internal/domain"
)

func millis(y int, m time.Month, d, h, min, s int) domain.Moment {
	return domain.Moment(time.Date(y, m, d, h, min, s, 0, time.UTC).UnixMilli())
}

func seconds(y int, m time.Month, d, h, min, s int) domain.Moment {
	return domain.Moment(time.Date(y, m, d, h, min, s, 0, time.UTC).Unix())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		instant domain.Moment
		hour    uint32
		want    domain.Moment
	}{
		{"seconds start", seconds(2025, 4, 10, 17, 33, 44), 17, millis(2025, 4, 10, 17, 0, 0)},
		{"seconds end", seconds(2025, 4, 13, 17, 33, 44), 12, millis(2025, 4, 13, 12, 0, 0)},
		{"millis start", millis(2025, 4, 10, 17, 33, 44) + 999, 17, millis(2025, 4, 10, 17, 0, 0)},
		{"millis end", millis(2025, 4, 13, 17, 33, 44), 12, millis(2025, 4, 13, 12, 0, 0)},
		{"midnight", millis(2025, 4, 10, 9, 15, 0), 0, millis(2025, 4, 10, 0, 0, 0)},
		{"last hour", millis(2025, 4, 10, 9, 15, 0), 23, millis(2025, 4, 10, 23, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.instant, tt.hour)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Errors(t *testing.T) {
	_, err := Normalize(millis(2025, 4, 10, 17, 33, 44), 24)
	assert.ErrorIs(t, err, ErrInvalidHour)

	_, err = Normalize(millis(2025, 4, 10, 17, 33, 44), 25)
	assert.ErrorIs(t, err, ErrInvalidHour)

	for _, bad := range []domain.Moment{0, 12345, 174430440000, 17443044000000} {
		_, err := Normalize(bad, 12)
		assert.ErrorIs(t, err, ErrBadPrecision, "%d", bad)
	}
}

func TestPrice(t *testing.T) {
	start := millis(2025, 4, 10, 17, 0, 0)
	end := millis(2025, 4, 13, 12, 0, 0)

	got, err := Price(start, end, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.Balance(30), got)

	got, err = Price(start, start, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.Balance(10), got)

	got, err = Price(start, start+millisPerDay, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.Balance(14), got)
}

func TestPrice_Arithmetic(t *testing.T) {
	_, err := Price(2000, 1000, 10)
	assert.ErrorIs(t, err, ErrUnderflow)

	_, err = Price(0, math.MaxUint64, 10)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Price(0, millisPerDay, math.MaxUint64)
	assert.ErrorIs(t, err, ErrOverflow)
}
