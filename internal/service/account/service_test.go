package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/verdictapp/verdict/internal/apperrors"
	"github.com/verdictapp/verdict/internal/config"
	"github.com/verdictapp/verdict/internal/models"
	"github.com/verdictapp/verdict/pkg/logger"
)

// Mock stores for testing
type mockProfileStore struct {
	CreateFunc      func(ctx context.Context, profile *models.Profile) error
	GetByIDFunc     func(ctx context.Context, id uint) (*models.Profile, error)
	GetByAuthIDFunc func(ctx context.Context, authID string) (*models.Profile, error)
}

func (m *mockProfileStore) Create(ctx context.Context, profile *models.Profile) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, profile)
	}
	return nil
}

func (m *mockProfileStore) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileStore) GetByAuthID(ctx context.Context, authID string) (*models.Profile, error) {
	if m.GetByAuthIDFunc != nil {
		return m.GetByAuthIDFunc(ctx, authID)
	}
	return nil, gorm.ErrRecordNotFound
}

type mockLedger struct {
	GrantFunc func(ctx context.Context, userID uint, amount int, reason string) error
}

func (m *mockLedger) Grant(ctx context.Context, userID uint, amount int, reason string) error {
	if m.GrantFunc != nil {
		return m.GrantFunc(ctx, userID, amount, reason)
	}
	return nil
}

func newTestService(profiles *mockProfileStore, ledger *mockLedger) *Service {
	cfg := config.CreditsConfig{
		SignupBonus:   3,
		RequestCost:   1,
		LookupTimeout: 5,
	}
	log := logger.New("debug", "text", "stdout")
	return NewServiceWithInterfaces(profiles, ledger, nil, cfg, time.Minute, log)
}

func TestInitializeUser_ExistingProfile(t *testing.T) {
	grantCalled := false

	profiles := &mockProfileStore{
		GetByAuthIDFunc: func(ctx context.Context, authID string) (*models.Profile, error) {
			return &models.Profile{ID: 7, AuthID: authID, Credits: 2}, nil
		},
	}
	ledger := &mockLedger{
		GrantFunc: func(ctx context.Context, userID uint, amount int, reason string) error {
			grantCalled = true
			return nil
		},
	}

	svc := newTestService(profiles, ledger)
	result, err := svc.InitializeUser(context.Background(), Identity{AuthID: "auth0|alice"})
	if err != nil {
		t.Fatalf("InitializeUser() failed: %v", err)
	}

	if result.IsNewUser {
		t.Error("Expected IsNewUser false for existing profile")
	}
	if result.Profile.ID != 7 {
		t.Errorf("Expected profile ID 7, got %d", result.Profile.ID)
	}
	if grantCalled {
		t.Error("Expected no signup bonus for an existing profile")
	}
}

func TestInitializeUser_NewProfile(t *testing.T) {
	var grantedUser uint
	var grantedAmount int
	var grantedReason string

	profiles := &mockProfileStore{
		GetByAuthIDFunc: func(ctx context.Context, authID string) (*models.Profile, error) {
			return nil, gorm.ErrRecordNotFound
		},
		CreateFunc: func(ctx context.Context, profile *models.Profile) error {
			profile.ID = 11
			return nil
		},
	}
	ledger := &mockLedger{
		GrantFunc: func(ctx context.Context, userID uint, amount int, reason string) error {
			grantedUser = userID
			grantedAmount = amount
			grantedReason = reason
			return nil
		},
	}

	svc := newTestService(profiles, ledger)
	result, err := svc.InitializeUser(context.Background(), Identity{
		AuthID:      "auth0|bob",
		Email:       "bob@example.com",
		DisplayName: "Bob",
	})
	if err != nil {
		t.Fatalf("InitializeUser() failed: %v", err)
	}

	if !result.IsNewUser {
		t.Error("Expected IsNewUser true for first login")
	}
	if result.Profile.Email != "bob@example.com" {
		t.Errorf("Expected email carried over, got %q", result.Profile.Email)
	}
	if grantedUser != 11 || grantedAmount != 3 || grantedReason != models.ReasonSignupBonus {
		t.Errorf("Expected signup bonus grant of 3 for user 11, got user=%d amount=%d reason=%q",
			grantedUser, grantedAmount, grantedReason)
	}
	if result.Profile.Credits != 3 {
		t.Errorf("Expected returned profile to carry the bonus, got %d credits", result.Profile.Credits)
	}
}

func TestInitializeUser_LosesCreationRace(t *testing.T) {
	grantCalled := false
	lookups := 0

	profiles := &mockProfileStore{
		GetByAuthIDFunc: func(ctx context.Context, authID string) (*models.Profile, error) {
			lookups++
			if lookups == 1 {
				// First lookup: the concurrent winner has not committed yet
				return nil, gorm.ErrRecordNotFound
			}
			return &models.Profile{ID: 5, AuthID: authID, Credits: 3}, nil
		},
		CreateFunc: func(ctx context.Context, profile *models.Profile) error {
			return gorm.ErrDuplicatedKey
		},
	}
	ledger := &mockLedger{
		GrantFunc: func(ctx context.Context, userID uint, amount int, reason string) error {
			grantCalled = true
			return nil
		},
	}

	svc := newTestService(profiles, ledger)
	result, err := svc.InitializeUser(context.Background(), Identity{AuthID: "auth0|carol"})
	if err != nil {
		t.Fatalf("InitializeUser() failed: %v", err)
	}

	if result.IsNewUser {
		t.Error("Expected IsNewUser false after losing the creation race")
	}
	if result.Profile.ID != 5 {
		t.Errorf("Expected the winner's profile, got ID %d", result.Profile.ID)
	}
	if grantCalled {
		t.Error("Expected the race loser to not grant a second bonus")
	}
}

func TestInitializeUser_BonusGrantFailureStillSucceeds(t *testing.T) {
	profiles := &mockProfileStore{
		GetByAuthIDFunc: func(ctx context.Context, authID string) (*models.Profile, error) {
			return nil, gorm.ErrRecordNotFound
		},
		CreateFunc: func(ctx context.Context, profile *models.Profile) error {
			profile.ID = 9
			return nil
		},
	}
	ledger := &mockLedger{
		GrantFunc: func(ctx context.Context, userID uint, amount int, reason string) error {
			return errors.New("ledger down")
		},
	}

	svc := newTestService(profiles, ledger)
	result, err := svc.InitializeUser(context.Background(), Identity{AuthID: "auth0|dave"})
	if err != nil {
		t.Fatalf("InitializeUser() failed: %v", err)
	}

	if !result.IsNewUser {
		t.Error("Expected IsNewUser true")
	}
	if result.Profile.Credits != 0 {
		t.Errorf("Expected 0 credits when the bonus grant failed, got %d", result.Profile.Credits)
	}
}

func TestInitializeUser_LookupIsBounded(t *testing.T) {
	profiles := &mockProfileStore{
		GetByAuthIDFunc: func(ctx context.Context, authID string) (*models.Profile, error) {
			deadline, ok := ctx.Deadline()
			if !ok {
				t.Error("Expected lookup context to carry a deadline")
			} else if remaining := time.Until(deadline); remaining > 5*time.Second {
				t.Errorf("Expected deadline within 5s, got %v", remaining)
			}
			return &models.Profile{ID: 1, AuthID: authID}, nil
		},
	}

	svc := newTestService(profiles, &mockLedger{})
	if _, err := svc.InitializeUser(context.Background(), Identity{AuthID: "auth0|alice"}); err != nil {
		t.Fatalf("InitializeUser() failed: %v", err)
	}
}

func TestGetProfile_NotFound(t *testing.T) {
	profiles := &mockProfileStore{
		GetByIDFunc: func(ctx context.Context, id uint) (*models.Profile, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := newTestService(profiles, &mockLedger{})
	_, err := svc.GetProfile(context.Background(), 999)

	if !errors.Is(err, apperrors.ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
}

func TestGetProfile_TimeoutIsStoreUnavailable(t *testing.T) {
	profiles := &mockProfileStore{
		GetByIDFunc: func(ctx context.Context, id uint) (*models.Profile, error) {
			return nil, context.DeadlineExceeded
		},
	}

	svc := newTestService(profiles, &mockLedger{})
	_, err := svc.GetProfile(context.Background(), 1)

	if !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable, got %v", err)
	}
}

func TestGetProfile_LookupIsBounded(t *testing.T) {
	profiles := &mockProfileStore{
		GetByIDFunc: func(ctx context.Context, id uint) (*models.Profile, error) {
			deadline, ok := ctx.Deadline()
			if !ok {
				t.Error("Expected lookup context to carry a deadline")
			} else if remaining := time.Until(deadline); remaining > 5*time.Second {
				t.Errorf("Expected deadline within 5s, got %v", remaining)
			}
			return &models.Profile{ID: id}, nil
		},
	}

	svc := newTestService(profiles, &mockLedger{})
	if _, err := svc.GetProfile(context.Background(), 1); err != nil {
		t.Fatalf("GetProfile() failed: %v", err)
	}
}

func TestGetProfileByAuthID(t *testing.T) {
	profiles := &mockProfileStore{
		GetByAuthIDFunc: func(ctx context.Context, authID string) (*models.Profile, error) {
			if authID != "auth0|erin" {
				return nil, gorm.ErrRecordNotFound
			}
			return &models.Profile{ID: 3, AuthID: authID, Credits: 1}, nil
		},
	}

	svc := newTestService(profiles, &mockLedger{})

	profile, err := svc.GetProfileByAuthID(context.Background(), "auth0|erin")
	if err != nil {
		t.Fatalf("GetProfileByAuthID() failed: %v", err)
	}
	if profile.ID != 3 {
		t.Errorf("Expected profile ID 3, got %d", profile.ID)
	}

	_, err = svc.GetProfileByAuthID(context.Background(), "auth0|nobody")
	if !errors.Is(err, apperrors.ErrProfileNotFound) {
		t.Errorf("Expected ErrProfileNotFound, got %v", err)
	}
}

func TestGetProfileByAuthID_CancelledContext(t *testing.T) {
	profiles := &mockProfileStore{
		GetByAuthIDFunc: func(ctx context.Context, authID string) (*models.Profile, error) {
			return nil, context.Canceled
		},
	}

	svc := newTestService(profiles, &mockLedger{})
	_, err := svc.GetProfileByAuthID(context.Background(), "auth0|frank")

	if !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("Expected ErrStoreUnavailable, got %v", err)
	}
}
