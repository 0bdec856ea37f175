// Package earnings implements judge earnings accrual and aggregation. Payout
// amounts are a pure function of the request's tier at verdict time and are
// never repriced afterwards.
package earnings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/verdictapp/verdict/internal/apperrors"
	"github.com/verdictapp/verdict/internal/cache"
	"github.com/verdictapp/verdict/internal/config"
	"github.com/verdictapp/verdict/internal/metrics"
	"github.com/verdictapp/verdict/internal/models"
	"github.com/verdictapp/verdict/internal/repository"
	"github.com/verdictapp/verdict/pkg/logger"
)

// EarningStore interface for earning persistence and aggregation.
type EarningStore interface {
	Create(ctx context.Context, earning *models.JudgeEarning) error
	GetByVerdictResponseID(ctx context.Context, verdictResponseID uint) (*models.JudgeEarning, error)
	ListByJudge(ctx context.Context, judgeID uint) ([]models.JudgeEarning, error)
	SummaryByJudge(ctx context.Context, judgeID uint) (*models.EarningsSummary, error)
	MaturedTotalsByJudge(ctx context.Context, now time.Time) ([]repository.JudgeMaturedTotal, error)
	PromoteMatured(ctx context.Context, now time.Time) (int64, error)
	MarkPaid(ctx context.Context, judgeID uint) (int64, error)
}

// Notifier interface for payout notifications.
type Notifier interface {
	EarningsAvailable(judgeID uint, amountCents int64)
}

// Service handles earnings accrual, maturation, and summaries.
type Service struct {
	earnings EarningStore
	cache    cache.Cache
	notifier Notifier
	cfg      *config.Config
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewService creates a new earnings service with concrete repository types.
func NewService(earnings *repository.EarningRepository, c cache.Cache, notifier Notifier, cfg *config.Config, cacheTTL time.Duration, log *logger.Logger) *Service {
	return NewServiceWithInterfaces(earnings, c, notifier, cfg, cacheTTL, log)
}

// NewServiceWithInterfaces creates a new earnings service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(earnings EarningStore, c cache.Cache, notifier Notifier, cfg *config.Config, cacheTTL time.Duration, log *logger.Logger) *Service {
	return &Service{earnings: earnings, cache: c, notifier: notifier, cfg: cfg, cacheTTL: cacheTTL, log: log}
}

// Record accrues exactly one earning for the verdict. The amount is looked up
// from the tier table now and frozen; the unique constraint on
// verdict_response_id absorbs a double invocation.
func (s *Service) Record(ctx context.Context, verdict *models.VerdictResponse, tierName string) (*models.JudgeEarning, error) {
	tier := s.cfg.TierByName(tierName)
	if tier == nil {
		return nil, fmt.Errorf("unknown tier %q", tierName)
	}

	now := time.Now()
	earning := &models.JudgeEarning{
		VerdictResponseID: verdict.ID,
		JudgeID:           verdict.JudgeID,
		Tier:              tier.Name,
		AmountCents:       tier.PayoutCents,
		PayoutStatus:      models.PayoutStatusPending,
		MaturesAt:         now.Add(s.cfg.Earnings.MaturationWindow()),
	}

	if err := s.earnings.Create(ctx, earning); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEarningExists
		}
		return nil, fmt.Errorf("failed to record earning for verdict %d: %w", verdict.ID, err)
	}

	s.invalidateSummary(ctx, verdict.JudgeID)
	metrics.EarningsAccruedCentsTotal.WithLabelValues(tier.Name).Add(float64(tier.PayoutCents))

	s.log.Info().
		Uint("verdict_id", verdict.ID).
		Uint("judge_id", verdict.JudgeID).
		Str("tier", tier.Name).
		Int64("amount_cents", tier.PayoutCents).
		Msg("Earning accrued")

	return earning, nil
}

// Summary returns the judge's earnings totals from the single repository
// aggregation so every surface reports identical numbers.
func (s *Service) Summary(ctx context.Context, judgeID uint) (*models.EarningsSummary, error) {
	key := cache.EarningsSummaryKey(judgeID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
			var summary models.EarningsSummary
			if err := json.Unmarshal([]byte(raw), &summary); err == nil {
				return &summary, nil
			}
		}
	}

	summary, err := s.earnings.SummaryByJudge(ctx, judgeID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize earnings for judge %d: %w", judgeID, err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Uint("judge_id", judgeID).Msg("Failed to cache earnings summary")
			}
		}
	}
	return summary, nil
}

// PromoteMatured flips pending earnings past their maturation window to
// available and notifies the affected judges. Run by the scheduler.
func (s *Service) PromoteMatured(ctx context.Context, now time.Time) (int64, error) {
	totals, err := s.earnings.MaturedTotalsByJudge(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(totals) == 0 {
		return 0, nil
	}

	promoted, err := s.earnings.PromoteMatured(ctx, now)
	if err != nil {
		return 0, err
	}

	for _, total := range totals {
		s.invalidateSummary(ctx, total.JudgeID)
		if s.notifier != nil {
			s.notifier.EarningsAvailable(total.JudgeID, total.AmountCents)
		}
	}

	if promoted > 0 {
		s.log.Info().Int64("promoted", promoted).Msg("Matured earnings promoted to available")
	}
	return promoted, nil
}

// MarkPaid closes all available earnings for a judge after a payout batch.
func (s *Service) MarkPaid(ctx context.Context, judgeID uint) (int64, error) {
	paid, err := s.earnings.MarkPaid(ctx, judgeID)
	if err != nil {
		return 0, err
	}
	s.invalidateSummary(ctx, judgeID)
	return paid, nil
}

func (s *Service) invalidateSummary(ctx context.Context, judgeID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cache.EarningsSummaryKey(judgeID)); err != nil {
		s.log.Warn().Err(err).Uint("judge_id", judgeID).Msg("Failed to invalidate earnings summary cache")
	}
}

// SummarizeEarnings is the pure in-memory implementation of the summary
// contract. It must agree with EarningStore.SummaryByJudge; tests hold the two
// to the same results.
func SummarizeEarnings(earnings []models.JudgeEarning) models.EarningsSummary {
	var summary models.EarningsSummary
	for _, e := range earnings {
		summary.TotalEarnedCents += e.AmountCents
		switch e.PayoutStatus {
		case models.PayoutStatusPending:
			summary.PendingCents += e.AmountCents
		case models.PayoutStatusAvailable:
			summary.AvailableCents += e.AmountCents
		case models.PayoutStatusPaid:
			summary.PaidCents += e.AmountCents
		}
	}
	return summary
}
