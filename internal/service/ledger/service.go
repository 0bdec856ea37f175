// Package ledger implements the credit ledger: every mutation of a profile's
// balance goes through this service, backed by atomic conditional updates and
// an append-only transaction log.
package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/verdictapp/verdict/internal/apperrors"
	"github.com/verdictapp/verdict/internal/cache"
	"github.com/verdictapp/verdict/internal/metrics"
	"github.com/verdictapp/verdict/internal/models"
	"github.com/verdictapp/verdict/internal/repository"
	"github.com/verdictapp/verdict/pkg/logger"
)

// ProfileStore interface for balance operations.
type ProfileStore interface {
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	DeductCredits(ctx context.Context, userID uint, amount int) (int, bool, error)
	AddCredits(ctx context.Context, userID uint, amount int) (int, bool, error)
}

// TransactionStore interface for ledger rows.
type TransactionStore interface {
	Append(ctx context.Context, tx *models.CreditTransaction) error
}

// Service handles credit balance mutations.
type Service struct {
	profiles ProfileStore
	ledger   TransactionStore
	cache    cache.Cache
	log      *logger.Logger
}

// NewService creates a new ledger service with concrete repository types.
func NewService(
	profiles *repository.ProfileRepository,
	ledger *repository.TransactionRepository,
	c cache.Cache,
	log *logger.Logger,
) *Service {
	return &Service{profiles: profiles, ledger: ledger, cache: c, log: log}
}

// NewServiceWithInterfaces creates a new ledger service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(profiles ProfileStore, ledger TransactionStore, c cache.Cache, log *logger.Logger) *Service {
	return &Service{profiles: profiles, ledger: ledger, cache: c, log: log}
}

// Deduct atomically spends amount credits from the user's balance. Returns
// apperrors.ErrInsufficientCredits when the balance does not cover the amount
// and apperrors.ErrProfileNotFound when the user has no profile.
func (s *Service) Deduct(ctx context.Context, userID uint, amount int, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("deduct amount must be positive, got %d", amount)
	}

	balance, ok, err := s.profiles.DeductCredits(ctx, userID, amount)
	if err != nil {
		return fmt.Errorf("deduct failed for user %d: %w", userID, err)
	}
	if !ok {
		// The conditional update matched nothing: either the profile is
		// missing or the balance is short. Distinguish for the caller.
		if _, err := s.profiles.GetByID(ctx, userID); err != nil {
			return apperrors.ErrProfileNotFound
		}
		metrics.InsufficientCreditsTotal.Inc()
		return apperrors.ErrInsufficientCredits
	}

	s.record(ctx, userID, -amount, reason, balance)
	s.invalidate(ctx, userID)
	metrics.CreditsDebitedTotal.Add(float64(amount))

	s.log.Info().
		Uint("user_id", userID).
		Int("amount", amount).
		Str("reason", reason).
		Msg("Credits deducted")
	return nil
}

// Refund unconditionally returns credits after a failed downstream step. The
// caller invokes it at most once per failed debit.
func (s *Service) Refund(ctx context.Context, userID uint, amount int, reason string) error {
	return s.credit(ctx, userID, amount, reason)
}

// Grant adds credits for signup bonuses, purchases, and community judging
// rewards.
func (s *Service) Grant(ctx context.Context, userID uint, amount int, reason string) error {
	return s.credit(ctx, userID, amount, reason)
}

func (s *Service) credit(ctx context.Context, userID uint, amount int, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	balance, ok, err := s.profiles.AddCredits(ctx, userID, amount)
	if err != nil {
		return fmt.Errorf("credit failed for user %d: %w", userID, err)
	}
	if !ok {
		return apperrors.ErrProfileNotFound
	}

	s.record(ctx, userID, amount, reason, balance)
	s.invalidate(ctx, userID)
	metrics.CreditsGrantedTotal.WithLabelValues(reason).Add(float64(amount))

	s.log.Info().
		Uint("user_id", userID).
		Int("amount", amount).
		Str("reason", reason).
		Msg("Credits granted")
	return nil
}

// record appends the ledger row for a completed balance mutation.
// balanceAfter comes from the mutation's own RETURNING value, so it is exact
// even under concurrent mutations. The balance itself already moved; a failed
// append is logged and left for the reconciliation job rather than unwinding
// the mutation.
func (s *Service) record(ctx context.Context, userID uint, amount int, reason string, balanceAfter int) {
	tx := &models.CreditTransaction{
		Reference:    uuid.New(),
		UserID:       userID,
		Amount:       amount,
		Reason:       reason,
		BalanceAfter: balanceAfter,
	}
	if err := s.ledger.Append(ctx, tx); err != nil {
		s.log.Error().Err(err).
			Uint("user_id", userID).
			Int("amount", amount).
			Str("reason", reason).
			Msg("Failed to append ledger row")
	}
}

func (s *Service) invalidate(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cache.ProfileKey(userID)); err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to invalidate profile cache")
	}
}
