package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kirinyoku/stayledger/internal/calendar"
	"github.com/kirinyoku/stayledger/internal/clock"
	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
	"github.com/kirinyoku/stayledger/internal/uow"
)

// Notifier receives one notification per booking whose state changed.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// CalendarCache drops cached views of a listing's calendar.
type CalendarCache interface {
	InvalidateListing(ctx context.Context, listingID domain.Hash) error
}

type Limiter interface {
	Allow(ctx context.Context, suffix string) (allowed bool, current int64, retryAfter time.Duration, err error)
}

type Deps struct {
	Store repository.Store
	// Listings overrides the store's listing registry, e.g. with a cache.
	Listings repository.ListingRepo
	Clock    clock.Clock
	Notifier Notifier
	Cache    CalendarCache
	Limiter  Limiter
	Logger   *slog.Logger
}

type Service struct {
	store    repository.Store
	listings repository.ListingRepo
	clock    clock.Clock
	notifier Notifier
	cache    CalendarCache
	limiter  Limiter
	logger   *slog.Logger
	uow      *uow.UoW
}

func New(d Deps) *Service {
	if d.Listings == nil {
		d.Listings = d.Store.Listings()
	}

	if d.Clock == nil {
		d.Clock = clock.System{}
	}

	if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Service{
		store:    d.Store,
		listings: d.Listings,
		clock:    d.Clock,
		notifier: d.Notifier,
		cache:    d.Cache,
		limiter:  d.Limiter,
		logger:   d.Logger,
		uow:      uow.NewUoW(d.Store),
	}
}

type CreateParams struct {
	ListingID domain.Hash
	Start     domain.Moment
	End       domain.Moment
	Amount    domain.Balance
}

type UpdateParams struct {
	Start  domain.Moment
	End    domain.Moment
	Amount domain.Balance
}

// Create places a new booking for the caller and escrows its amount.
//
// Parameters:
//   - ctx: request-scoped context.
//   - caller: the guest placing the booking.
//   - p: listing, requested stay and the amount the guest agrees to pay.
//
// Returns:
//   - domain.Hash: the content-addressed id of the new booking.
//   - error: booking.ErrInvalidDates, ErrListingNotFound, ErrCannotBookOwnedListing,
//     ErrInvalidStartDate, ErrBookingAlreadyExists, ErrDatesNotAvailable,
//     ErrAmountTooLow/High or ErrNotEnoughFreeBalance when a guard fails.
func (s *Service) Create(ctx context.Context, caller domain.AccountID, p CreateParams) (domain.Hash, error) {
	const op = "service.booking.Create"

	if p.End <= p.Start {
		return domain.Hash{}, fmt.Errorf("%s:%w", op, ErrInvalidDates)
	}

	if err := s.allow(ctx, caller); err != nil {
		return domain.Hash{}, fmt.Errorf("%s:%w", op, err)
	}

	listing, err := s.listing(ctx, p.ListingID)
	if err != nil {
		return domain.Hash{}, fmt.Errorf("%s:%w", op, err)
	}

	if listing.Owner == caller {
		return domain.Hash{}, fmt.Errorf("%s:%w", op, ErrCannotBookOwnedListing)
	}

	start, end, err := normalizeStay(listing, p.Start, p.End)
	if err != nil {
		return domain.Hash{}, fmt.Errorf("%s:%w", op, err)
	}

	if start <= s.clock.Now() {
		return domain.Hash{}, fmt.Errorf("%s:%w", op, ErrInvalidStartDate)
	}

	b := &domain.Booking{
		ListingID: listing.ID,
		Host:      listing.Owner,
		Guest:     caller,
		Start:     start,
		End:       end,
		Amount:    p.Amount,
		State:     domain.BookingCreated,
	}
	b.ID = domain.NewBookingID(b.ListingID, b.Host, b.Guest, b.Start, b.End, b.Amount)

	err = s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		bookings := tx.Bookings()

		// An identical resubmission is a duplicate whatever happened since.
		exists, err := bookings.Exists(ctx, b.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrBookingAlreadyExists
		}

		ok, err := available(ctx, bookings, listing.ID, start, end)
		if err != nil {
			return err
		}
		if !ok {
			return ErrDatesNotAvailable
		}

		expected, err := calendar.Price(start, end, listing.PricePerNight)
		if err != nil {
			return translateCalendarErr(err)
		}
		if p.Amount != expected {
			return &AmountMismatchError{Expected: expected, Provided: p.Amount}
		}

		ok, err = tx.Ledger().CanReserve(ctx, caller, p.Amount)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotEnoughFreeBalance
		}

		if err := bookings.Insert(ctx, b); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrBookingAlreadyExists
			}
			return err
		}

		if err := bookings.AddActive(ctx, b.ListingID, b.ID); err != nil {
			return err
		}

		if err := tx.Ledger().Reserve(ctx, caller, b.ID, b.Amount); err != nil {
			return translateLedgerErr(err)
		}

		if err := bookings.AddPendingWithdrawal(ctx, b.Host, domain.PendingWithdrawal{
			BookingID: b.ID,
			Amount:    b.Amount,
		}); err != nil {
			return err
		}

		after(s.committed(caller, domain.EventBookingPlaced, b))

		return nil
	})
	if err != nil {
		return domain.Hash{}, fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	s.logger.Debug("booking placed",
		slog.String("booking_id", b.ID.String()),
		slog.String("listing_id", b.ListingID.String()),
		slog.String("guest", string(b.Guest)),
		slog.Uint64("amount", uint64(b.Amount)),
	)

	return b.ID, nil
}

// Confirm accepts a booking on behalf of the host. Every other active booking
// of the listing colliding with the confirmed dates is rejected in the same
// unit of work.
//
// Returns:
//   - error: booking.ErrBookingNotFound, ErrNotListingOwner, ErrWrongState or
//     ErrCannotConfirmOutdatedBooking.
func (s *Service) Confirm(ctx context.Context, caller domain.AccountID, id domain.Hash) (domain.Hash, error) {
	const op = "service.booking.Confirm"

	var evicted []*domain.Booking

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		b, err := load(ctx, tx, id)
		if err != nil {
			return err
		}

		if caller != b.Host {
			return ErrNotListingOwner
		}

		if b.State != domain.BookingCreated {
			return ErrWrongState
		}

		if s.clock.Now() >= b.Start {
			return ErrCannotConfirmOutdatedBooking
		}

		evicted, err = overlapping(ctx, tx.Bookings(), b.ListingID, b.ID, b.Start, b.End)
		if err != nil {
			return err
		}

		for _, victim := range evicted {
			if err := s.cancel(ctx, tx, victim); err != nil {
				return err
			}
		}

		if err := tx.Bookings().SetState(ctx, b.ID, domain.BookingConfirmed); err != nil {
			return err
		}
		b.State = domain.BookingConfirmed

		after(s.committed(caller, domain.EventBookingConfirmed, b))
		for _, victim := range evicted {
			victim.State = domain.BookingRejected
			after(s.committed(caller, domain.EventBookingRejected, victim))
		}

		return nil
	})
	if err != nil {
		return domain.Hash{}, fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	s.logger.Debug("booking confirmed",
		slog.String("booking_id", id.String()),
		slog.Int("evicted", len(evicted)),
	)

	return id, nil
}

// Reject declines a booking that is still awaiting the host. The guest's
// escrow is released and recorded as a pending withdrawal of the guest.
func (s *Service) Reject(ctx context.Context, caller domain.AccountID, id domain.Hash) (domain.Hash, error) {
	const op = "service.booking.Reject"

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		b, err := load(ctx, tx, id)
		if err != nil {
			return err
		}

		if caller != b.Host {
			return ErrNotListingOwner
		}

		if b.State != domain.BookingCreated {
			return ErrWrongState
		}

		if err := s.cancel(ctx, tx, b); err != nil {
			return err
		}
		b.State = domain.BookingRejected

		after(s.committed(caller, domain.EventBookingRejected, b))

		return nil
	})
	if err != nil {
		return domain.Hash{}, fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	s.logger.Debug("booking rejected", slog.String("booking_id", id.String()))

	return id, nil
}

// Checkin marks a confirmed booking as ready for host settlement once its
// start has been reached.
func (s *Service) Checkin(ctx context.Context, caller domain.AccountID, id domain.Hash) (domain.Hash, error) {
	const op = "service.booking.Checkin"

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		b, err := load(ctx, tx, id)
		if err != nil {
			return err
		}

		if caller != b.Guest {
			return ErrNotListingGuest
		}

		if b.State != domain.BookingConfirmed {
			return ErrWrongState
		}

		if s.clock.Now() < b.Start {
			return ErrCheckinNotAvailableYet
		}

		if err := tx.Bookings().SetState(ctx, b.ID, domain.BookingOwnerCanWithdraw); err != nil {
			return err
		}
		b.State = domain.BookingOwnerCanWithdraw

		after(s.committed(caller, domain.EventBookingCheckedIn, b))

		return nil
	})
	if err != nil {
		return domain.Hash{}, fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	return id, nil
}

// Withdraw settles a booking. Depending on its state the guest reclaims the
// escrow or the host collects it.
//
// Returns:
//   - error: booking.ErrWrongState when the booking is not settleable,
//     ErrNotImplemented for states reserved for refund policies,
//     ErrTransferFailed when the payment would kill the guest account.
func (s *Service) Withdraw(ctx context.Context, caller domain.AccountID, id domain.Hash) (domain.Hash, error) {
	const op = "service.booking.Withdraw"

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx repository.Tx,
		after func(uow.AfterCommit),
	) error {
		b, err := load(ctx, tx, id)
		if err != nil {
			return err
		}

		switch b.State {
		case domain.BookingRejected, domain.BookingUserCanWithdraw:
			err = s.guestWithdraw(ctx, tx, caller, b)
		case domain.BookingOwnerCanWithdraw:
			err = s.hostWithdraw(ctx, tx, caller, b)
		case domain.BookingWithdrawable:
			err = ErrNotImplemented
		default:
			err = ErrWrongState
		}
		if err != nil {
			return err
		}
		b.State = domain.BookingCompleted

		after(s.committed(caller, domain.EventBookingWithdrawn, b))

		return nil
	})
	if err != nil {
		return domain.Hash{}, fmt.Errorf("%s:%w", op, translateStoreErr(err))
	}

	s.logger.Debug("booking withdrawn",
		slog.String("booking_id", id.String()),
		slog.String("caller", string(caller)),
	)

	return id, nil
}

func (s *Service) Update(ctx context.Context, caller domain.AccountID, id domain.Hash, p UpdateParams) (domain.Hash, error) {
	const op = "service.booking.Update"
	return domain.Hash{}, fmt.Errorf("%s:%w", op, ErrNotSupported)
}

func (s *Service) Cancel(ctx context.Context, caller domain.AccountID, id domain.Hash) (domain.Hash, error) {
	const op = "service.booking.Cancel"
	return domain.Hash{}, fmt.Errorf("%s:%w", op, ErrNotSupported)
}

// IsAvailable reports whether [start, end] could be booked on the listing.
// The bounds are taken as given, without normalization.
func (s *Service) IsAvailable(ctx context.Context, listingID domain.Hash, start, end domain.Moment) (bool, error) {
	const op = "service.booking.IsAvailable"

	ok, err := available(ctx, s.store.Bookings(), listingID, start, end)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, err)
	}

	return ok, nil
}

// Overlapping lists the active bookings of a listing, except candidate, whose
// dates collide with [start, end].
func (s *Service) Overlapping(
	ctx context.Context,
	listingID, candidate domain.Hash,
	start, end domain.Moment,
) ([]domain.Hash, error) {
	const op = "service.booking.Overlapping"

	found, err := overlapping(ctx, s.store.Bookings(), listingID, candidate, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	ids := make([]domain.Hash, 0, len(found))
	for _, b := range found {
		ids = append(ids, b.ID)
	}

	return ids, nil
}

// Availability normalizes a requested stay to the listing's hours and checks
// it against the calendar.
//
// Returns:
//   - bool: whether the stay could be booked.
//   - domain.Moment, domain.Moment: the normalized bounds.
func (s *Service) Availability(
	ctx context.Context,
	listingID domain.Hash,
	start, end domain.Moment,
) (bool, domain.Moment, domain.Moment, error) {
	const op = "service.booking.Availability"

	if end <= start {
		return false, 0, 0, fmt.Errorf("%s:%w", op, ErrInvalidDates)
	}

	listing, err := s.listing(ctx, listingID)
	if err != nil {
		return false, 0, 0, fmt.Errorf("%s:%w", op, err)
	}

	nStart, nEnd, err := normalizeStay(listing, start, end)
	if err != nil {
		return false, 0, 0, fmt.Errorf("%s:%w", op, err)
	}

	ok, err := s.IsAvailable(ctx, listingID, nStart, nEnd)
	if err != nil {
		return false, 0, 0, fmt.Errorf("%s:%w", op, err)
	}

	return ok, nStart, nEnd, nil
}

func (s *Service) allow(ctx context.Context, caller domain.AccountID) error {
	if s.limiter == nil {
		return nil
	}

	ok, _, retry, err := s.limiter.Allow(ctx, string(caller))
	if err != nil {
		s.logger.Warn("rate limiter unavailable", slog.Any("err", err))
		return nil
	}

	if !ok {
		return &RateLimitedError{RetryAfter: retry}
	}

	return nil
}

func (s *Service) listing(ctx context.Context, id domain.Hash) (*domain.Listing, error) {
	l, err := s.listings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}

	return l, nil
}

// committed builds the after-commit hook for a state change of b.
func (s *Service) committed(caller domain.AccountID, event domain.NotificationEvent, b *domain.Booking) uow.AfterCommit {
	n := domain.Notification{
		Event:     event,
		BookingID: b.ID,
		ListingID: b.ListingID,
		Caller:    caller,
		State:     b.State,
		At:        s.clock.Now().Time(),
	}

	return func(ctx context.Context) {
		if s.cache != nil {
			if err := s.cache.InvalidateListing(ctx, n.ListingID); err != nil {
				s.logger.Warn("calendar cache invalidation failed",
					slog.String("listing_id", n.ListingID.String()),
					slog.Any("err", err),
				)
			}
		}

		if s.notifier != nil {
			if err := s.notifier.Notify(ctx, n); err != nil {
				s.logger.Warn("booking notification failed",
					slog.String("event", string(n.Event)),
					slog.String("booking_id", n.BookingID.String()),
					slog.Any("err", err),
				)
			}
		}
	}
}

func load(ctx context.Context, tx repository.Tx, id domain.Hash) (*domain.Booking, error) {
	b, err := tx.Bookings().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return b, nil
}

func normalizeStay(l *domain.Listing, start, end domain.Moment) (domain.Moment, domain.Moment, error) {
	nStart, err := calendar.Normalize(start, l.CheckinHour)
	if err != nil {
		return 0, 0, translateCalendarErr(err)
	}

	nEnd, err := calendar.Normalize(end, l.CheckoutHour)
	if err != nil {
		return 0, 0, translateCalendarErr(err)
	}

	if nEnd <= nStart {
		return 0, 0, ErrInvalidDates
	}

	return nStart, nEnd, nil
}

func translateCalendarErr(err error) error {
	switch {
	case errors.Is(err, calendar.ErrInvalidHour):
		return ErrInvalidHour
	case errors.Is(err, calendar.ErrBadPrecision):
		return ErrBadPrecision
	case errors.Is(err, calendar.ErrOverflow):
		return ErrArithmeticOverflow
	case errors.Is(err, calendar.ErrUnderflow):
		return ErrArithmeticUnderflow
	}
	return err
}

// translateStoreErr maps a serialization failure reported by the store at
// commit time.
func translateStoreErr(err error) error {
	if KindOf(err) == KindUnknown && errors.Is(err, repository.ErrConflict) {
		return fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
	}
	return err
}
