package repository

import (
	"context"
	"fmt"

	"github.com/verdictapp/verdict/internal/models"
)

// TransactionRepository handles the append-only credit ledger.
type TransactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Append writes one ledger row. Rows are never updated or deleted.
func (r *TransactionRepository) Append(ctx context.Context, tx *models.CreditTransaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to append credit transaction: %w", err)
	}
	return nil
}

// ListByUser retrieves a user's ledger rows, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.CreditTransaction, error) {
	var txs []models.CreditTransaction
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions for user %d: %w", userID, err)
	}
	return txs, nil
}

// BalanceMismatch is a profile whose stored balance diverges from the sum of
// its ledger rows.
type BalanceMismatch struct {
	UserID        uint  `json:"user_id"`
	Credits       int   `json:"credits"`
	LedgerBalance int64 `json:"ledger_balance"`
}

// FindBalanceMismatches compares each profile's balance against its ledger
// total. Used by the reconciliation job; a non-empty result means a ledger
// append was lost and needs operator attention.
func (r *TransactionRepository) FindBalanceMismatches(ctx context.Context) ([]BalanceMismatch, error) {
	var mismatches []BalanceMismatch
	err := r.db.WithContext(ctx).Raw(
		`SELECT p.id AS user_id, p.credits AS credits, COALESCE(SUM(t.amount), 0) AS ledger_balance
		 FROM profiles p
		 LEFT JOIN credit_transactions t ON t.user_id = p.id
		 GROUP BY p.id, p.credits
		 HAVING p.credits <> COALESCE(SUM(t.amount), 0)`,
	).Scan(&mismatches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find balance mismatches: %w", err)
	}
	return mismatches, nil
}
