// Package account owns the profile lifecycle. InitializeUser is the only code
// path in the system that creates a Profile row; everything else treats a
// missing profile as a hard error.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/verdictapp/verdict/internal/apperrors"
	"github.com/verdictapp/verdict/internal/cache"
	"github.com/verdictapp/verdict/internal/config"
	"github.com/verdictapp/verdict/internal/models"
	"github.com/verdictapp/verdict/internal/repository"
	"github.com/verdictapp/verdict/pkg/logger"
)

// ProfileStore interface for profile operations.
type ProfileStore interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	GetByAuthID(ctx context.Context, authID string) (*models.Profile, error)
}

// Ledger interface for the signup credit grant.
type Ledger interface {
	Grant(ctx context.Context, userID uint, amount int, reason string) error
}

// Identity is what the auth provider asserts about the caller.
type Identity struct {
	AuthID      string
	Email       string
	DisplayName string
}

// InitResult is the outcome of InitializeUser.
type InitResult struct {
	IsNewUser bool            `json:"is_new_user"`
	Profile   *models.Profile `json:"profile"`
}

// Service handles profile initialization and lookups.
type Service struct {
	profiles      ProfileStore
	ledger        Ledger
	cache         cache.Cache
	cfg           config.CreditsConfig
	cacheTTL      time.Duration
	lookupTimeout time.Duration
	log           *logger.Logger
}

// NewService creates a new account service with concrete repository types.
func NewService(
	profiles *repository.ProfileRepository,
	ledger Ledger,
	c cache.Cache,
	cfg config.CreditsConfig,
	cacheTTL time.Duration,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(profiles, ledger, c, cfg, cacheTTL, log)
}

// NewServiceWithInterfaces creates a new account service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	profiles ProfileStore,
	ledger Ledger,
	c cache.Cache,
	cfg config.CreditsConfig,
	cacheTTL time.Duration,
	log *logger.Logger,
) *Service {
	return &Service{
		profiles:      profiles,
		ledger:        ledger,
		cache:         c,
		cfg:           cfg,
		cacheTTL:      cacheTTL,
		lookupTimeout: cfg.LookupTimeoutDuration(),
		log:           log,
	}
}

// InitializeUser guarantees a profile exists for the identity. The common path
// is a single point lookup. On first login it creates the profile and grants
// the signup bonus exactly once; a concurrent duplicate creation surfaces as a
// unique-constraint conflict and is treated as "already exists, re-fetch".
func (s *Service) InitializeUser(ctx context.Context, identity Identity) (*InitResult, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	profile, err := s.profiles.GetByAuthID(lookupCtx, identity.AuthID)
	if err == nil {
		return &InitResult{IsNewUser: false, Profile: profile}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.translateLookupErr(err)
	}

	created := &models.Profile{
		AuthID:      identity.AuthID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		IsJudge:     true,
	}
	if err := s.profiles.Create(ctx, created); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent callback for the same
			// identity; the winner granted the bonus.
			existing, ferr := s.profiles.GetByAuthID(lookupCtx, identity.AuthID)
			if ferr != nil {
				return nil, s.translateLookupErr(ferr)
			}
			return &InitResult{IsNewUser: false, Profile: existing}, nil
		}
		return nil, s.translateLookupErr(err)
	}

	if s.cfg.SignupBonus > 0 {
		if err := s.ledger.Grant(ctx, created.ID, s.cfg.SignupBonus, models.ReasonSignupBonus); err != nil {
			s.log.Error().Err(err).Uint("user_id", created.ID).Msg("Failed to grant signup bonus")
		} else {
			created.Credits = s.cfg.SignupBonus
		}
	}

	s.log.Info().
		Uint("user_id", created.ID).
		Str("auth_id", identity.AuthID).
		Msg("Profile created")

	return &InitResult{IsNewUser: true, Profile: created}, nil
}

// GetProfile fetches a profile by id, bounded by the configured lookup
// timeout. Absence and store failures surface as typed errors.
func (s *Service) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	if cached := s.fromCache(ctx, cache.ProfileKey(userID)); cached != nil {
		return cached, nil
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, s.translateLookupErr(err)
	}

	s.toCache(ctx, cache.ProfileKey(userID), profile)
	return profile, nil
}

// GetProfileByAuthID resolves the auth-provider identity to a profile,
// bounded by the configured lookup timeout. Only the auth-id to profile-id
// mapping is cached here; the profile itself goes through GetProfile so
// ledger invalidation stays tied to the profile id.
func (s *Service) GetProfileByAuthID(ctx context.Context, authID string) (*models.Profile, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	if s.cache != nil {
		raw, err := s.cache.Get(lookupCtx, cache.ProfileAuthKey(authID))
		if err == nil && raw != "" {
			if id, perr := strconv.ParseUint(raw, 10, 32); perr == nil {
				return s.GetProfile(ctx, uint(id))
			}
		}
	}

	profile, err := s.profiles.GetByAuthID(lookupCtx, authID)
	if err != nil {
		return nil, s.translateLookupErr(err)
	}

	if s.cache != nil {
		// The auth-id mapping is immutable, so a long TTL is safe.
		if err := s.cache.Set(lookupCtx, cache.ProfileAuthKey(authID), strconv.FormatUint(uint64(profile.ID), 10), 24*time.Hour); err != nil {
			s.log.Warn().Err(err).Str("auth_id", authID).Msg("Failed to cache auth mapping")
		}
	}
	return profile, nil
}

func (s *Service) translateLookupErr(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.ErrProfileNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.ErrStoreUnavailable
	default:
		return err
	}
}

func (s *Service) fromCache(ctx context.Context, key string) *models.Profile {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		return nil
	}
	var profile models.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil
	}
	return &profile
}

func (s *Service) toCache(ctx context.Context, key string, profile *models.Profile) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Failed to cache profile")
	}
}
