package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kirinyoku/stayledger/internal/domain"
)

func TestMulti_DeliversToAll(t *testing.T) {
	var calls atomic.Int32
	count := Func(func(context.Context, domain.Notification) error {
		calls.Add(1)
		return nil
	})
	boom := errors.New("boom")
	failing := Func(func(context.Context, domain.Notification) error {
		calls.Add(1)
		return boom
	})

	err := Multi{count, nil, failing, count}.Notify(context.Background(), domain.Notification{})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(3), calls.Load())
}

func TestLog_Notify(t *testing.T) {
	var buf bytes.Buffer
	l := Log{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	err := l.Notify(context.Background(), domain.Notification{
		Event: domain.EventBookingRejected,
		State: domain.BookingRejected,
	})

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "event=booking.rejected")
	assert.Contains(t, buf.String(), "state=rejected")
}
