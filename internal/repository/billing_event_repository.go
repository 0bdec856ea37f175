package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/verdictapp/verdict/internal/models"
)

// BillingEventRepository handles webhook event deduplication records.
type BillingEventRepository struct {
	db *DB
}

// NewBillingEventRepository creates a new billing event repository.
func NewBillingEventRepository(db *DB) *BillingEventRepository {
	return &BillingEventRepository{db: db}
}

// Create inserts a new webhook event record. Returns gorm.ErrDuplicatedKey
// when the provider event was already recorded, which is how redelivered
// webhooks are detected.
func (r *BillingEventRepository) Create(ctx context.Context, event *models.BillingEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create billing event: %w", err)
	}
	return nil
}

// GetByProviderEventID retrieves the recorded event for a provider delivery.
func (r *BillingEventRepository) GetByProviderEventID(ctx context.Context, provider, providerEventID string) (*models.BillingEvent, error) {
	var event models.BillingEvent
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventID).
		First(&event).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get billing event %s/%s: %w", provider, providerEventID, err)
	}
	return &event, nil
}

// MarkProcessed stamps the event as handled, recording the failure message if
// processing errored.
func (r *BillingEventRepository) MarkProcessed(ctx context.Context, eventID uint, processingError string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&models.BillingEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"processed_at":     &now,
			"processing_error": processingError,
			"updated_at":       now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark billing event %d processed: %w", eventID, err)
	}
	return nil
}
