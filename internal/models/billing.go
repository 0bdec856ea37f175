package models

import (
	"time"
)

// BillingEvent stores provider webhook payloads with deduplication metadata so
// webhook delivery retries never grant credits twice.
type BillingEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"size:20;not null;uniqueIndex:ux_billing_events_provider_event,priority:1" json:"provider"`
	ProviderEventID string     `gorm:"size:191;not null;uniqueIndex:ux_billing_events_provider_event,priority:2" json:"provider_event_id"`
	EventType       string     `gorm:"size:100;not null;index" json:"event_type"`
	Payload         string     `gorm:"type:text;not null" json:"payload"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for BillingEvent model.
func (BillingEvent) TableName() string {
	return "billing_events"
}
