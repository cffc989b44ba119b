package service

import (
	"log/slog"

	"github.com/kirinyoku/stayledger/internal/clock"
	"github.com/kirinyoku/stayledger/internal/repository"
	redisrepo "github.com/kirinyoku/stayledger/internal/repository/redis"
	"github.com/kirinyoku/stayledger/internal/service/admin"
	"github.com/kirinyoku/stayledger/internal/service/booking"
	"github.com/kirinyoku/stayledger/internal/service/query"
)

type Services struct {
	Booking *booking.Service
	Query   *query.Service
	Admin   *admin.Service
}

type Config struct {
	Query query.Config
}

// Deps are the collaborators shared by the services. Everything but Store
// is optional.
type Deps struct {
	Store    repository.Store
	Listings repository.ListingRepo
	Cache    *redisrepo.Cache
	Limiter  booking.Limiter
	Notifier booking.Notifier
	Clock    clock.Clock
	Logger   *slog.Logger
}

func NewServices(d Deps, cfg Config) *Services {
	if d.Listings == nil {
		d.Listings = d.Store.Listings()
	}

	var calendarCache booking.CalendarCache
	if d.Cache != nil {
		calendarCache = d.Cache
	}

	return &Services{
		Booking: booking.New(booking.Deps{
			Store:    d.Store,
			Listings: d.Listings,
			Clock:    d.Clock,
			Notifier: d.Notifier,
			Cache:    calendarCache,
			Limiter:  d.Limiter,
			Logger:   d.Logger,
		}),
		Query: query.New(d.Store, d.Listings, d.Cache, cfg.Query),
		Admin: admin.New(d.Store, d.Logger),
	}
}
