package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
)

// cancel rejects b: it leaves the listing's calendar, the guest's escrow is
// released and the claim moves from the host to the guest.
func (s *Service) cancel(ctx context.Context, tx repository.Tx, b *domain.Booking) error {
	bookings := tx.Bookings()

	if err := bookings.SetState(ctx, b.ID, domain.BookingRejected); err != nil {
		return err
	}

	if err := bookings.RemoveActive(ctx, b.ListingID, b.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("active index is missing a booking",
				slog.String("booking_id", b.ID.String()),
				slog.String("listing_id", b.ListingID.String()),
			)
			return ErrBookingNotFound
		}
		return err
	}

	if _, err := tx.Ledger().Unreserve(ctx, b.Guest, b.ID, b.Amount); err != nil {
		return translateLedgerErr(err)
	}

	if _, err := bookings.RemovePendingWithdrawal(ctx, b.Host, b.ID); err != nil {
		return err
	}

	return bookings.AddPendingWithdrawal(ctx, b.Guest, domain.PendingWithdrawal{
		BookingID: b.ID,
		Amount:    b.Amount,
	})
}

// guestWithdraw closes a booking whose escrow belongs back to the guest.
// After a rejection the hold was already released, so the unreserve below
// releases nothing.
func (s *Service) guestWithdraw(ctx context.Context, tx repository.Tx, caller domain.AccountID, b *domain.Booking) error {
	if caller != b.Guest {
		return ErrNotListingGuest
	}

	bookings := tx.Bookings()

	if _, err := tx.Ledger().Unreserve(ctx, b.Guest, b.ID, b.Amount); err != nil {
		return translateLedgerErr(err)
	}

	if _, err := bookings.RemovePendingWithdrawal(ctx, b.Guest, b.ID); err != nil {
		return err
	}

	if b.State == domain.BookingUserCanWithdraw {
		if err := bookings.RemoveActive(ctx, b.ListingID, b.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}

	return bookings.SetState(ctx, b.ID, domain.BookingCompleted)
}

// hostWithdraw pays the host out of the guest's escrow.
func (s *Service) hostWithdraw(ctx context.Context, tx repository.Tx, caller domain.AccountID, b *domain.Booking) error {
	if caller != b.Host {
		return ErrNotListingOwner
	}

	ledger := tx.Ledger()
	bookings := tx.Bookings()

	if _, err := ledger.Unreserve(ctx, b.Guest, b.ID, b.Amount); err != nil {
		return translateLedgerErr(err)
	}

	if err := ledger.Transfer(ctx, b.Guest, b.Host, b.Amount, true); err != nil {
		if errors.Is(err, repository.ErrKeepAlive) || errors.Is(err, repository.ErrInsufficientFunds) {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		return translateLedgerErr(err)
	}

	if _, err := bookings.RemovePendingWithdrawal(ctx, b.Host, b.ID); err != nil {
		return err
	}

	if err := bookings.RemoveActive(ctx, b.ListingID, b.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("active index is missing a booking",
				slog.String("booking_id", b.ID.String()),
				slog.String("listing_id", b.ListingID.String()),
			)
			return ErrBookingNotFound
		}
		return err
	}

	return bookings.SetState(ctx, b.ID, domain.BookingCompleted)
}
