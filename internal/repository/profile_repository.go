package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/verdictapp/verdict/internal/models"
)

// ProfileRepository handles profile-related database operations. Balance
// mutations are single conditional updates so concurrent spenders can never
// drive a balance negative.
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts a new profile. Returns gorm.ErrDuplicatedKey when a profile
// with the same auth id already exists.
func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by ID.
func (r *ProfileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get profile by id %d: %w", id, err)
	}
	return &profile, nil
}

// GetByAuthID retrieves a profile by the auth-provider identity key.
func (r *ProfileRepository) GetByAuthID(ctx context.Context, authID string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("auth_id = ?", authID).First(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to get profile by auth_id %s: %w", authID, err)
	}
	return &profile, nil
}

// Update updates a profile.
func (r *ProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// DeductCredits atomically decrements the balance if, and only if, it covers
// amount. The post-update balance comes back through the update's RETURNING
// clause so concurrent mutations never report each other's balance. Returns
// false without error when the balance is insufficient or the profile does not
// exist; the caller distinguishes the two.
func (r *ProfileRepository) DeductCredits(ctx context.Context, userID uint, amount int) (int, bool, error) {
	var updated []models.Profile
	res := r.db.WithContext(ctx).Model(&updated).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "credits"}}}).
		Where("id = ? AND credits >= ?", userID, amount).
		UpdateColumn("credits", gorm.Expr("credits - ?", amount))
	if res.Error != nil {
		return 0, false, fmt.Errorf("failed to deduct %d credits from profile %d: %w", amount, userID, res.Error)
	}
	if res.RowsAffected == 0 || len(updated) == 0 {
		return 0, false, nil
	}
	return updated[0].Credits, true, nil
}

// AddCredits atomically increments the balance, returning the new balance.
// Returns false without error when the profile does not exist.
func (r *ProfileRepository) AddCredits(ctx context.Context, userID uint, amount int) (int, bool, error) {
	var updated []models.Profile
	res := r.db.WithContext(ctx).Model(&updated).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "credits"}}}).
		Where("id = ?", userID).
		UpdateColumn("credits", gorm.Expr("credits + ?", amount))
	if res.Error != nil {
		return 0, false, fmt.Errorf("failed to add %d credits to profile %d: %w", amount, userID, res.Error)
	}
	if res.RowsAffected == 0 || len(updated) == 0 {
		return 0, false, nil
	}
	return updated[0].Credits, true, nil
}
