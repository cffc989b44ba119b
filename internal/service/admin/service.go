package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirinyoku/stayledger/internal/domain"
	"github.com/kirinyoku/stayledger/internal/repository"
	"github.com/kirinyoku/stayledger/internal/uow"
)

type Service struct {
	store  repository.Store
	logger *slog.Logger
	uow    *uow.UoW
}

func New(store repository.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:  store,
		logger: logger,
		uow:    uow.NewUoW(store),
	}
}

type CreateListingParams struct {
	Name          string
	Address       string
	PricePerNight domain.Balance
	CheckinHour   uint32
	CheckoutHour  uint32
}

// CreateListing registers a listing owned by owner and returns its ID.
//
// Parameters:
//   - ctx: request-scoped context.
//   - owner: account that will host bookings on the listing.
//   - p: listing attributes.
//
// Returns:
//   - domain.Hash: the ID derived from owner, name and address.
//   - error: admin.ErrBadHours or admin.ErrCheckoutAfterCheckin for invalid hours.
//   - error: admin.ErrListingConflict if the same owner already registered it.
func (s *Service) CreateListing(ctx context.Context, owner domain.AccountID, p CreateListingParams) (domain.Hash, error) {
	const op = "service.admin.CreateListing"

	if strings.TrimSpace(p.Name) == "" {
		return domain.Hash{}, fmt.Errorf("%s: %w", op, ErrInvalidListing)
	}

	if err := checkHours(p.CheckinHour, p.CheckoutHour); err != nil {
		return domain.Hash{}, fmt.Errorf("%s: %w", op, err)
	}

	l := &domain.Listing{
		ID:            domain.NewListingID(owner, p.Name, p.Address),
		Owner:         owner,
		Name:          p.Name,
		Address:       p.Address,
		PricePerNight: p.PricePerNight,
		CheckinHour:   p.CheckinHour,
		CheckoutHour:  p.CheckoutHour,
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
		if err := tx.Listings().Create(ctx, l); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrListingConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			s.logger.Info("listing registered",
				slog.String("listing_id", l.ID.String()),
				slog.String("owner", string(owner)),
			)
		})

		return nil
	})
	if err != nil {
		return domain.Hash{}, err
	}

	return l.ID, nil
}

// Deposit credits amount to the free balance of account.
//
// Returns:
//   - domain.AccountBalance: the balance after the deposit.
//   - error: admin.ErrInvalidDeposit for a zero amount.
//   - error: admin.ErrBalanceOverflow if the balance would overflow.
func (s *Service) Deposit(ctx context.Context, account domain.AccountID, amount domain.Balance) (domain.AccountBalance, error) {
	const op = "service.admin.Deposit"

	if amount == 0 {
		return domain.AccountBalance{}, fmt.Errorf("%s: %w", op, ErrInvalidDeposit)
	}

	var bal domain.AccountBalance
	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Tx, after func(uow.AfterCommit)) error {
		if err := tx.Ledger().Deposit(ctx, account, amount); err != nil {
			if errors.Is(err, repository.ErrOverflow) {
				return fmt.Errorf("%s: %w", op, ErrBalanceOverflow)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		var err error
		bal, err = tx.Ledger().Balance(ctx, account)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		return nil
	})

	return bal, err
}

func checkHours(checkin, checkout uint32) error {
	if checkin <= checkout {
		return ErrCheckoutAfterCheckin
	}

	if checkin < 1 || checkin > 23 || checkout < 1 || checkout > 23 {
		return ErrBadHours
	}

	return nil
}
