// Package scheduler runs background jobs: earnings maturation and ledger
// reconciliation.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/verdictapp/verdict/internal/config"
	"github.com/verdictapp/verdict/internal/repository"
	"github.com/verdictapp/verdict/pkg/logger"
)

// EarningsService interface for the maturation job.
type EarningsService interface {
	PromoteMatured(ctx context.Context, now time.Time) (int64, error)
}

// TransactionStore interface for the reconciliation job.
type TransactionStore interface {
	FindBalanceMismatches(ctx context.Context) ([]repository.BalanceMismatch, error)
}

// Service schedules the background jobs.
type Service struct {
	cfg      *config.SchedulerConfig
	earnings EarningsService
	ledger   TransactionStore
	log      *logger.Logger
	cron     *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(cfg *config.SchedulerConfig, earnings EarningsService, ledger TransactionStore, log *logger.Logger) *Service {
	return &Service{
		cfg:      cfg,
		earnings: earnings,
		ledger:   ledger,
		log:      log,
	}
}

// Start registers and starts the cron jobs.
func (s *Service) Start() error {
	if !s.cfg.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.cfg.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.cfg.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	if _, err := s.cron.AddFunc(s.cfg.MaturationSchedule, func() {
		s.runMaturation(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to register maturation job: %w", err)
	}

	if _, err := s.cron.AddFunc(s.cfg.ReconcileSchedule, func() {
		s.runReconciliation(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to register reconciliation job: %w", err)
	}

	s.cron.Start()

	s.log.Info().
		Str("maturation_schedule", s.cfg.MaturationSchedule).
		Str("reconcile_schedule", s.cfg.ReconcileSchedule).
		Str("timezone", s.cfg.Timezone).
		Msg("Scheduler started")
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// runMaturation promotes pending earnings past their maturation window.
func (s *Service) runMaturation(ctx context.Context) {
	promoted, err := s.earnings.PromoteMatured(ctx, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("Earnings maturation job failed")
		return
	}
	s.log.Debug().Int64("promoted", promoted).Msg("Earnings maturation job finished")
}

// runReconciliation compares profile balances with ledger totals and flags
// divergence for operator attention.
func (s *Service) runReconciliation(ctx context.Context) {
	mismatches, err := s.ledger.FindBalanceMismatches(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Ledger reconciliation job failed")
		return
	}
	for _, m := range mismatches {
		s.log.Warn().
			Uint("user_id", m.UserID).
			Int("credits", m.Credits).
			Int64("ledger_balance", m.LedgerBalance).
			Msg("Profile balance diverges from ledger")
	}
	s.log.Info().Int("mismatches", len(mismatches)).Msg("Ledger reconciliation finished")
}
