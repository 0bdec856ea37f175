package repository

import (
	"context"
	"fmt"

	"github.com/verdictapp/verdict/internal/models"
)

// VerdictRepository handles verdict-response database operations.
type VerdictRepository struct {
	db *DB
}

// NewVerdictRepository creates a new verdict repository.
func NewVerdictRepository(db *DB) *VerdictRepository {
	return &VerdictRepository{db: db}
}

// Create inserts a new verdict response. Returns gorm.ErrDuplicatedKey when
// the judge already responded to the request.
func (r *VerdictRepository) Create(ctx context.Context, verdict *models.VerdictResponse) error {
	if err := r.db.WithContext(ctx).Create(verdict).Error; err != nil {
		return fmt.Errorf("failed to create verdict response: %w", err)
	}
	return nil
}

// GetByID retrieves a verdict response by ID.
func (r *VerdictRepository) GetByID(ctx context.Context, id uint) (*models.VerdictResponse, error) {
	var verdict models.VerdictResponse
	if err := r.db.WithContext(ctx).First(&verdict, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get verdict by id %d: %w", id, err)
	}
	return &verdict, nil
}

// Delete removes a verdict row. Used only to compensate a verdict whose fill
// lost the race for the last open slot.
func (r *VerdictRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.VerdictResponse{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete verdict %d: %w", id, err)
	}
	return nil
}

// ListByRequest retrieves all verdicts for a request.
func (r *VerdictRepository) ListByRequest(ctx context.Context, requestID uint) ([]models.VerdictResponse, error) {
	var verdicts []models.VerdictResponse
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&verdicts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list verdicts for request %d: %w", requestID, err)
	}
	return verdicts, nil
}

// ExistsByRequestAndJudge reports whether the judge already responded.
func (r *VerdictRepository) ExistsByRequestAndJudge(ctx context.Context, requestID, judgeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.VerdictResponse{}).
		Where("request_id = ? AND judge_id = ?", requestID, judgeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check verdict existence for request %d, judge %d: %w", requestID, judgeID, err)
	}
	return count > 0, nil
}

// CountByJudge counts all verdicts submitted by a judge.
func (r *VerdictRepository) CountByJudge(ctx context.Context, judgeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.VerdictResponse{}).
		Where("judge_id = ?", judgeID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count verdicts for judge %d: %w", judgeID, err)
	}
	return count, nil
}
