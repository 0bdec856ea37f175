package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/verdictapp/verdict/internal/models"
)

// EarningRepository handles judge-earning database operations.
type EarningRepository struct {
	db *DB
}

// NewEarningRepository creates a new earning repository.
func NewEarningRepository(db *DB) *EarningRepository {
	return &EarningRepository{db: db}
}

// Create inserts a new earning row. Returns gorm.ErrDuplicatedKey when an
// earning already exists for the verdict response.
func (r *EarningRepository) Create(ctx context.Context, earning *models.JudgeEarning) error {
	if err := r.db.WithContext(ctx).Create(earning).Error; err != nil {
		return fmt.Errorf("failed to create judge earning: %w", err)
	}
	return nil
}

// GetByVerdictResponseID retrieves the earning for a verdict response.
func (r *EarningRepository) GetByVerdictResponseID(ctx context.Context, verdictResponseID uint) (*models.JudgeEarning, error) {
	var earning models.JudgeEarning
	err := r.db.WithContext(ctx).
		Where("verdict_response_id = ?", verdictResponseID).
		First(&earning).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get earning for verdict %d: %w", verdictResponseID, err)
	}
	return &earning, nil
}

// ListByJudge retrieves all earnings for a judge, newest first.
func (r *EarningRepository) ListByJudge(ctx context.Context, judgeID uint) ([]models.JudgeEarning, error) {
	var earnings []models.JudgeEarning
	err := r.db.WithContext(ctx).
		Where("judge_id = ?", judgeID).
		Order("created_at DESC").
		Find(&earnings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list earnings for judge %d: %w", judgeID, err)
	}
	return earnings, nil
}

// SummaryByJudge aggregates a judge's earnings by payout status in a single
// query. Every surface reporting earnings goes through this aggregation.
func (r *EarningRepository) SummaryByJudge(ctx context.Context, judgeID uint) (*models.EarningsSummary, error) {
	var summary models.EarningsSummary
	err := r.db.WithContext(ctx).Model(&models.JudgeEarning{}).
		Select(
			"COALESCE(SUM(amount_cents), 0) AS total_earned_cents, "+
				"COALESCE(SUM(CASE WHEN payout_status = ? THEN amount_cents ELSE 0 END), 0) AS pending_cents, "+
				"COALESCE(SUM(CASE WHEN payout_status = ? THEN amount_cents ELSE 0 END), 0) AS available_cents, "+
				"COALESCE(SUM(CASE WHEN payout_status = ? THEN amount_cents ELSE 0 END), 0) AS paid_cents",
			models.PayoutStatusPending, models.PayoutStatusAvailable, models.PayoutStatusPaid,
		).
		Where("judge_id = ?", judgeID).
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to summarize earnings for judge %d: %w", judgeID, err)
	}
	return &summary, nil
}

// JudgeMaturedTotal is one judge's pending amount past its maturation window.
type JudgeMaturedTotal struct {
	JudgeID     uint
	AmountCents int64
}

// MaturedTotalsByJudge sums matured pending earnings per judge. Read before
// PromoteMatured so callers know whom to notify.
func (r *EarningRepository) MaturedTotalsByJudge(ctx context.Context, now time.Time) ([]JudgeMaturedTotal, error) {
	var totals []JudgeMaturedTotal
	err := r.db.WithContext(ctx).Model(&models.JudgeEarning{}).
		Select("judge_id, SUM(amount_cents) AS amount_cents").
		Where("payout_status = ? AND matures_at <= ?", models.PayoutStatusPending, now).
		Group("judge_id").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to total matured earnings: %w", err)
	}
	return totals, nil
}

// PromoteMatured flips pending earnings whose maturation window has elapsed to
// available. Returns the number of promoted rows.
func (r *EarningRepository) PromoteMatured(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.JudgeEarning{}).
		Where("payout_status = ? AND matures_at <= ?", models.PayoutStatusPending, now).
		Updates(map[string]interface{}{
			"payout_status": models.PayoutStatusAvailable,
			"updated_at":    now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to promote matured earnings: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// MarkPaid closes all available earnings for a judge after a payout batch.
// Returns the number of rows marked.
func (r *EarningRepository) MarkPaid(ctx context.Context, judgeID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.JudgeEarning{}).
		Where("judge_id = ? AND payout_status = ?", judgeID, models.PayoutStatusAvailable).
		Updates(map[string]interface{}{
			"payout_status": models.PayoutStatusPaid,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark earnings paid for judge %d: %w", judgeID, res.Error)
	}
	return res.RowsAffected, nil
}
