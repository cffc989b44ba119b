package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/stayledger/internal/domain"
	redisx "github.com/kirinyoku/stayledger/internal/redis"
	"github.com/kirinyoku/stayledger/internal/repository"
	redisrepo "github.com/kirinyoku/stayledger/internal/repository/redis"
)

type Config struct {
	CalendarTTL time.Duration
}

type Service struct {
	store    repository.Store
	listings repository.ListingRepo
	cache    *redisrepo.Cache
	cfg      Config
}

// New builds the read side. listings may be a caching registry; cache may be
// nil, in which case every read goes to the store.
func New(store repository.Store, listings repository.ListingRepo, cache *redisrepo.Cache, cfg Config) *Service {
	if listings == nil {
		listings = store.Listings()
	}

	if cfg.CalendarTTL <= 0 {
		cfg.CalendarTTL = 15 * time.Second
	}

	return &Service{
		store:    store,
		listings: listings,
		cache:    cache,
		cfg:      cfg,
	}
}

// GetBooking retrieves a booking by its ID.
//
// Returns:
//   - error: query.ErrBookingNotFound if the booking does not exist.
func (s *Service) GetBooking(ctx context.Context, id domain.Hash) (*domain.Booking, error) {
	const op = "service.query.GetBooking"

	b, err := s.store.Bookings().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrBookingNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

// BookingIDs returns the ID of every booking ever placed, oldest first.
func (s *Service) BookingIDs(ctx context.Context) ([]domain.Hash, error) {
	const op = "service.query.BookingIDs"

	ids, err := s.store.Bookings().AllIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ids == nil {
		ids = []domain.Hash{}
	}

	return ids, nil
}

// GetListing retrieves a listing by its ID.
//
// Returns:
//   - error: query.ErrListingNotFound if the listing does not exist.
func (s *Service) GetListing(ctx context.Context, id domain.Hash) (*domain.Listing, error) {
	const op = "service.query.GetListing"

	l, err := s.listings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrListingNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return l, nil
}

// ListingBookings returns the bookings currently competing for the listing's
// calendar, ordered by start.
//
// Returns:
//   - error: query.ErrListingNotFound if the listing does not exist.
func (s *Service) ListingBookings(ctx context.Context, listingID domain.Hash) ([]domain.Booking, error) {
	const op = "service.query.ListingBookings"

	if _, err := s.GetListing(ctx, listingID); err != nil {
		return nil, err
	}

	load := func(ctx context.Context) ([]domain.Booking, error) {
		return s.activeBookings(ctx, listingID)
	}

	if s.cache == nil {
		out, err := load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return out, nil
	}

	out, err := redisrepo.GetOrSetJSON(ctx, s.cache, redisx.KeyListingCalendar(listingID), s.cfg.CalendarTTL, load)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// PendingWithdrawals lists the claims account may settle.
func (s *Service) PendingWithdrawals(ctx context.Context, account domain.AccountID) ([]domain.PendingWithdrawal, error) {
	const op = "service.query.PendingWithdrawals"

	out, err := s.store.Bookings().PendingWithdrawals(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if out == nil {
		out = []domain.PendingWithdrawal{}
	}

	return out, nil
}

func (s *Service) Balance(ctx context.Context, account domain.AccountID) (domain.AccountBalance, error) {
	const op = "service.query.Balance"

	bal, err := s.store.Ledger().Balance(ctx, account)
	if err != nil {
		return domain.AccountBalance{}, fmt.Errorf("%s: %w", op, err)
	}

	return bal, nil
}

func (s *Service) activeBookings(ctx context.Context, listingID domain.Hash) ([]domain.Booking, error) {
	bookings := s.store.Bookings()

	ids, err := bookings.ActiveIDs(ctx, listingID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Booking, 0, len(ids))
	for _, id := range ids {
		b, err := bookings.Get(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, *b)
	}

	sortByStart(out)

	return out, nil
}
