package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/verdictapp/verdict/internal/models"
)

// RequestRepository handles verdict-request database operations.
type RequestRepository struct {
	db *DB
}

// NewRequestRepository creates a new request repository.
func NewRequestRepository(db *DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a new verdict request.
func (r *RequestRepository) Create(ctx context.Context, request *models.VerdictRequest) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return fmt.Errorf("failed to create verdict request: %w", err)
	}
	return nil
}

// GetByID retrieves a verdict request by ID.
func (r *RequestRepository) GetByID(ctx context.Context, id uint) (*models.VerdictRequest, error) {
	var request models.VerdictRequest
	if err := r.db.WithContext(ctx).First(&request, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get verdict request by id %d: %w", id, err)
	}
	return &request, nil
}

// GetByIDWithVerdicts retrieves a verdict request with its verdicts preloaded.
func (r *RequestRepository) GetByIDWithVerdicts(ctx context.Context, id uint) (*models.VerdictRequest, error) {
	var request models.VerdictRequest
	err := r.db.WithContext(ctx).
		Preload("Verdicts").
		Preload("Verdicts.Judge").
		First(&request, id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get verdict request %d with verdicts: %w", id, err)
	}
	return &request, nil
}

// ListByUser retrieves all requests owned by a user, newest first.
func (r *RequestRepository) ListByUser(ctx context.Context, userID uint) ([]models.VerdictRequest, error) {
	var requests []models.VerdictRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list requests for user %d: %w", userID, err)
	}
	return requests, nil
}

// ListOpenForJudge retrieves fillable requests the judge may respond to,
// excluding the judge's own requests and requests they already judged.
func (r *RequestRepository) ListOpenForJudge(ctx context.Context, judgeID uint, limit int) ([]models.VerdictRequest, error) {
	var requests []models.VerdictRequest
	query := r.db.WithContext(ctx).
		Where("status IN ?", []string{models.RequestStatusOpen, models.RequestStatusInProgress}).
		Where("user_id <> ?", judgeID).
		Where("NOT EXISTS (SELECT 1 FROM verdict_responses vr WHERE vr.request_id = verdict_requests.id AND vr.judge_id = ?)", judgeID).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list open requests for judge %d: %w", judgeID, err)
	}
	return requests, nil
}

// FillSlot claims one verdict slot on the request in a single conditional
// update. The guard on received_verdict_count is what keeps two judges racing
// for the last slot from overfilling the request, and the CASE flips the status
// to completed in the same statement, so a full request is never observed as
// still open. Returns false when no slot was claimed (request missing,
// terminal, or already full).
func (r *RequestRepository) FillSlot(ctx context.Context, requestID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.VerdictRequest{}).
		Where("id = ? AND received_verdict_count < target_verdict_count AND status IN ?",
			requestID, []string{models.RequestStatusOpen, models.RequestStatusInProgress}).
		Updates(map[string]interface{}{
			"received_verdict_count": gorm.Expr("received_verdict_count + 1"),
			"status": gorm.Expr(
				"CASE WHEN received_verdict_count + 1 >= target_verdict_count THEN ? ELSE ? END",
				models.RequestStatusCompleted, models.RequestStatusInProgress,
			),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to fill slot on request %d: %w", requestID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Cancel transitions the request to cancelled if it is still open or in
// progress. Returns false when the request was already terminal or missing.
func (r *RequestRepository) Cancel(ctx context.Context, requestID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.VerdictRequest{}).
		Where("id = ? AND status IN ?",
			requestID, []string{models.RequestStatusOpen, models.RequestStatusInProgress}).
		Updates(map[string]interface{}{
			"status":     models.RequestStatusCancelled,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to cancel request %d: %w", requestID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete soft-deletes a request; it stops appearing in listing queries.
func (r *RequestRepository) Delete(ctx context.Context, requestID uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.VerdictRequest{}, requestID).Error; err != nil {
		return fmt.Errorf("failed to delete request %d: %w", requestID, err)
	}
	return nil
}

// CountByStatus counts requests per status for metrics.
func (r *RequestRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.VerdictRequest{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count requests with status %s: %w", status, err)
	}
	return count, nil
}
