package models

import (
	"time"

	"github.com/google/uuid"
)

// CreditTransaction is an append-only ledger row recording one credit delta.
// The ledger is the reconciliation source for Profile.Credits; the balance
// itself is mutated only through atomic conditional updates.
type CreditTransaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Reference    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"reference"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	Amount       int       `gorm:"not null" json:"amount"` // signed delta, negative for debits
	Reason       string    `gorm:"size:255;not null" json:"reason"`
	BalanceAfter int       `gorm:"not null" json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for CreditTransaction model.
func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

// Ledger reason constants.
const (
	ReasonSignupBonus           = "Signup bonus"
	ReasonRequestCreation       = "Verdict request"
	ReasonRequestCreationFailed = "Request creation failed"
	ReasonRequestCancelled      = "Request cancelled"
	ReasonCreditPurchase        = "Credit purchase"
	ReasonCommunityReward       = "Community judging reward"
)
