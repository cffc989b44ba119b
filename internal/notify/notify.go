// Package notify delivers booking notifications to any number of sinks.
package notify

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kirinyoku/stayledger/internal/domain"
)

type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// Multi delivers to every notifier concurrently and returns the first error.
// A failing sink does not stop delivery to the others.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n domain.Notification) error {
	var g errgroup.Group
	for _, target := range m {
		if target == nil {
			continue
		}
		g.Go(func() error {
			return target.Notify(ctx, n)
		})
	}
	return g.Wait()
}

// Log writes every notification to logger.
type Log struct {
	Logger *slog.Logger
}

func (l Log) Notify(ctx context.Context, n domain.Notification) error {
	l.Logger.LogAttrs(ctx, slog.LevelInfo, "booking notification",
		slog.String("event", string(n.Event)),
		slog.String("booking_id", n.BookingID.String()),
		slog.String("listing_id", n.ListingID.String()),
		slog.String("caller", string(n.Caller)),
		slog.String("state", string(n.State)),
	)
	return nil
}

type Func func(ctx context.Context, n domain.Notification) error

func (f Func) Notify(ctx context.Context, n domain.Notification) error {
	return f(ctx, n)
}
