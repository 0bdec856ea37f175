package repository

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/verdictapp/verdict/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing. TranslateError
// is on so unique-constraint violations surface as gorm.ErrDuplicatedKey, the
// same as against PostgreSQL.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	testDB := &DB{db}
	if err := testDB.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	return testDB
}

// createTestProfile creates a test profile in the database.
func createTestProfile(t *testing.T, db *DB, authID string, credits int) *models.Profile {
	t.Helper()

	profile := &models.Profile{
		AuthID:      authID,
		Email:       authID + "@example.com",
		DisplayName: authID,
		Credits:     credits,
	}

	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}

	return profile
}

// createTestRequest creates a test verdict request in the database.
func createTestRequest(t *testing.T, db *DB, userID uint, target int) *models.VerdictRequest {
	t.Helper()

	request := &models.VerdictRequest{
		UserID:             userID,
		Category:           "design",
		MediaType:          "text",
		Content:            "Is this landing page convincing?",
		Tier:               "community",
		Status:             models.RequestStatusOpen,
		TargetVerdictCount: target,
	}

	if err := db.Create(request).Error; err != nil {
		t.Fatalf("Failed to create test request: %v", err)
	}

	return request
}
