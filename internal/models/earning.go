package models

import (
	"time"
)

// JudgeEarning records the payout owed for one accepted verdict. Exactly one
// row exists per verdict response; the amount is frozen at accrual time and is
// never recomputed when tier pricing changes.
type JudgeEarning struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	VerdictResponseID uint            `gorm:"not null;uniqueIndex" json:"verdict_response_id"`
	VerdictResponse   VerdictResponse `gorm:"foreignKey:VerdictResponseID" json:"verdict_response,omitempty"`
	JudgeID           uint            `gorm:"not null;index" json:"judge_id"`
	Tier              string          `gorm:"size:50;not null" json:"tier"`
	AmountCents       int64           `gorm:"not null" json:"amount_cents"`
	PayoutStatus      string          `gorm:"size:20;index;not null" json:"payout_status"` // 'pending', 'available', 'paid'
	MaturesAt         time.Time       `gorm:"not null" json:"matures_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName specifies the table name for JudgeEarning model.
func (JudgeEarning) TableName() string {
	return "judge_earnings"
}

// EarningsSummary aggregates a judge's earnings by payout status. All surfaces
// report from this one shape so the numbers never diverge.
type EarningsSummary struct {
	TotalEarnedCents int64 `json:"total_earned_cents"`
	PendingCents     int64 `json:"pending_cents"`
	AvailableCents   int64 `json:"available_cents"`
	PaidCents        int64 `json:"paid_cents"`
}

// Payout status constants.
const (
	PayoutStatusPending   = "pending"
	PayoutStatusAvailable = "available"
	PayoutStatusPaid      = "paid"
)
