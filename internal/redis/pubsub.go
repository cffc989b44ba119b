package redisx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kirinyoku/stayledger/internal/domain"
)

// BookingsPubSub fans booking notifications out to every replica over a
// redis channel.
type BookingsPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewBookingsPubSub(rdb *redis.Client) *BookingsPubSub {
	return &BookingsPubSub{
		rdb:     rdb,
		channel: ChannelBookings(),
	}
}

// Notify publishes n on the bookings channel.
func (p *BookingsPubSub) Notify(ctx context.Context, n domain.Notification) error {
	const op = "redisx.BookingsPubSub.Notify"

	b, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := p.rdb.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// Subscribe delivers notifications to handler until ctx is done. Malformed
// payloads are skipped.
func (p *BookingsPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, n domain.Notification)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var n domain.Notification
			if err := json.Unmarshal([]byte(m.Payload), &n); err == nil &&
				!n.BookingID.IsZero() {
				handler(ctx, n)
			}
		}
	}
}
