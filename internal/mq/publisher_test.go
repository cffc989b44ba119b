package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/stayledger/internal/domain"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent []published
	err  error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestPublisher_Notify(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{ch: ch, exchange: "stayledger.bookings"}

	n := domain.Notification{
		Event:     domain.EventBookingConfirmed,
		BookingID: domain.NewListingID("a", "b", "c"),
		Caller:    "host",
		State:     domain.BookingConfirmed,
		At:        time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.Notify(context.Background(), n))
	require.Len(t, ch.sent, 1)

	got := ch.sent[0]
	assert.Equal(t, "stayledger.bookings", got.exchange)
	assert.Equal(t, "booking.confirmed", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, n.At, got.msg.Timestamp)

	var decoded domain.Notification
	require.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, n.BookingID, decoded.BookingID)
	assert.Equal(t, domain.BookingConfirmed, decoded.State)
}

func TestPublisher_NotifyError(t *testing.T) {
	boom := errors.New("channel closed")
	p := &Publisher{ch: &fakeChannel{err: boom}, exchange: "x"}

	err := p.Notify(context.Background(), domain.Notification{Event: domain.EventBookingPlaced})
	assert.ErrorIs(t, err, boom)
}
