// Package requests implements the verdict request state machine: requests move
// open -> in_progress -> completed as judges fill verdict slots, with
// cancellation reachable from the two non-terminal states. Credit debits and
// slot fills are individually atomic at the storage layer; when a later step
// fails after a successful debit the service issues a compensating refund.
package requests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/verdictapp/verdict/internal/apperrors"
	"github.com/verdictapp/verdict/internal/cache"
	"github.com/verdictapp/verdict/internal/config"
	"github.com/verdictapp/verdict/internal/metrics"
	"github.com/verdictapp/verdict/internal/models"
	"github.com/verdictapp/verdict/internal/repository"
	"github.com/verdictapp/verdict/pkg/logger"
)

// RequestStore interface for request persistence.
type RequestStore interface {
	Create(ctx context.Context, request *models.VerdictRequest) error
	GetByID(ctx context.Context, id uint) (*models.VerdictRequest, error)
	GetByIDWithVerdicts(ctx context.Context, id uint) (*models.VerdictRequest, error)
	ListByUser(ctx context.Context, userID uint) ([]models.VerdictRequest, error)
	ListOpenForJudge(ctx context.Context, judgeID uint, limit int) ([]models.VerdictRequest, error)
	FillSlot(ctx context.Context, requestID uint) (bool, error)
	Cancel(ctx context.Context, requestID uint) (bool, error)
}

// VerdictStore interface for verdict persistence.
type VerdictStore interface {
	Create(ctx context.Context, verdict *models.VerdictResponse) error
	Delete(ctx context.Context, id uint) error
}

// Ledger interface for credit operations.
type Ledger interface {
	Deduct(ctx context.Context, userID uint, amount int, reason string) error
	Refund(ctx context.Context, userID uint, amount int, reason string) error
	Grant(ctx context.Context, userID uint, amount int, reason string) error
}

// EarningsRecorder interface for accruing judge earnings.
type EarningsRecorder interface {
	Record(ctx context.Context, verdict *models.VerdictResponse, tier string) (*models.JudgeEarning, error)
}

// Notifier interface for outbound completion notifications.
type Notifier interface {
	RequestCompleted(request *models.VerdictRequest)
}

// CreatePayload is the submitter's input for a new request.
type CreatePayload struct {
	Category  string `json:"category" binding:"required"`
	MediaType string `json:"media_type"`
	Content   string `json:"content" binding:"required"`
	Context   string `json:"context"`
	Tier      string `json:"tier" binding:"required"`
}

// VerdictPayload is a judge's input for a verdict.
type VerdictPayload struct {
	Rating   int    `json:"rating" binding:"required,min=1,max=10"`
	Feedback string `json:"feedback" binding:"required"`
	Tone     string `json:"tone"`
}

// Service drives the request state machine.
type Service struct {
	requests RequestStore
	verdicts VerdictStore
	ledger   Ledger
	earnings EarningsRecorder
	notifier Notifier
	cache    cache.Cache
	cfg      *config.Config
	log      *logger.Logger
}

// NewService creates a new request service with concrete repository types.
func NewService(
	requests *repository.RequestRepository,
	verdicts *repository.VerdictRepository,
	ledger Ledger,
	earnings EarningsRecorder,
	notifier Notifier,
	c cache.Cache,
	cfg *config.Config,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(requests, verdicts, ledger, earnings, notifier, c, cfg, log)
}

// NewServiceWithInterfaces creates a new request service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	requests RequestStore,
	verdicts VerdictStore,
	ledger Ledger,
	earnings EarningsRecorder,
	notifier Notifier,
	c cache.Cache,
	cfg *config.Config,
	log *logger.Logger,
) *Service {
	return &Service{
		requests: requests,
		verdicts: verdicts,
		ledger:   ledger,
		earnings: earnings,
		notifier: notifier,
		cache:    c,
		cfg:      cfg,
		log:      log,
	}
}

// Create debits one request's worth of credits and inserts the request. If the
// insert fails after the debit succeeded, the debit is compensated with a
// refund before the error propagates.
func (s *Service) Create(ctx context.Context, userID uint, payload CreatePayload) (*models.VerdictRequest, error) {
	tier := s.cfg.TierByName(payload.Tier)
	if tier == nil {
		return nil, apperrors.ErrUnknownTier
	}

	cost := s.cfg.Credits.RequestCost
	if err := s.ledger.Deduct(ctx, userID, cost, models.ReasonRequestCreation); err != nil {
		return nil, err
	}

	request := &models.VerdictRequest{
		UserID:             userID,
		Category:           payload.Category,
		MediaType:          payload.MediaType,
		Content:            payload.Content,
		Context:            payload.Context,
		Tier:               tier.Name,
		Status:             models.RequestStatusOpen,
		TargetVerdictCount: tier.TargetVerdictCount,
	}
	if request.MediaType == "" {
		request.MediaType = "text"
	}

	if err := s.requests.Create(ctx, request); err != nil {
		if rerr := s.ledger.Refund(ctx, userID, cost, models.ReasonRequestCreationFailed); rerr != nil {
			s.log.Error().Err(rerr).
				Uint("user_id", userID).
				Msg("Compensating refund failed after request insert error")
		}
		return nil, fmt.Errorf("failed to create request for user %d: %w", userID, err)
	}

	metrics.RequestsCreatedTotal.WithLabelValues(tier.Name).Inc()
	metrics.OpenRequests.Inc()
	s.log.Info().
		Uint("request_id", request.ID).
		Uint("user_id", userID).
		Str("tier", tier.Name).
		Int("target", request.TargetVerdictCount).
		Msg("Verdict request created")

	return request, nil
}

// AddJudgeVerdict records one judge's verdict. Ownership and terminal-state
// checks run before any write; the duplicate-judge guard is the unique
// (request_id, judge_id) constraint; the fill itself is the request
// repository's single conditional update. A verdict whose fill loses the race
// for the last slot is removed again and the judge sees a filled-request error.
func (s *Service) AddJudgeVerdict(ctx context.Context, requestID, judgeID uint, payload VerdictPayload) (*models.VerdictRequest, *models.VerdictResponse, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrRequestNotFound
		}
		return nil, nil, fmt.Errorf("failed to load request %d: %w", requestID, err)
	}

	if request.UserID == judgeID {
		metrics.VerdictsRejectedTotal.WithLabelValues("own_request").Inc()
		return nil, nil, apperrors.ErrCannotJudgeOwnRequest
	}
	if request.IsTerminal() {
		metrics.VerdictsRejectedTotal.WithLabelValues("closed").Inc()
		return nil, nil, apperrors.ErrRequestClosed
	}

	verdict := &models.VerdictResponse{
		RequestID: requestID,
		JudgeID:   judgeID,
		Rating:    payload.Rating,
		Feedback:  payload.Feedback,
		Tone:      payload.Tone,
	}
	if err := s.verdicts.Create(ctx, verdict); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			metrics.VerdictsRejectedTotal.WithLabelValues("duplicate").Inc()
			return nil, nil, apperrors.ErrAlreadyJudged
		}
		return nil, nil, fmt.Errorf("failed to insert verdict for request %d: %w", requestID, err)
	}

	filled, err := s.requests.FillSlot(ctx, requestID)
	if err != nil {
		s.removeVerdict(ctx, verdict.ID)
		return nil, nil, fmt.Errorf("failed to fill slot on request %d: %w", requestID, err)
	}
	if !filled {
		// Another judge took the last slot (or the request was cancelled)
		// between our status check and the fill. Undo the verdict insert.
		s.removeVerdict(ctx, verdict.ID)
		current, lerr := s.requests.GetByID(ctx, requestID)
		if lerr == nil && current.Status == models.RequestStatusCancelled {
			metrics.VerdictsRejectedTotal.WithLabelValues("closed").Inc()
			return nil, nil, apperrors.ErrRequestClosed
		}
		metrics.VerdictsRejectedTotal.WithLabelValues("filled").Inc()
		return nil, nil, apperrors.ErrRequestFilled
	}

	updated, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reload request %d: %w", requestID, err)
	}

	s.accrue(ctx, verdict, updated.Tier, judgeID)
	s.invalidateRequest(ctx, requestID)
	metrics.VerdictsSubmittedTotal.WithLabelValues(updated.Tier).Inc()

	if updated.Status == models.RequestStatusCompleted {
		metrics.OpenRequests.Dec()
		metrics.RequestFillSeconds.WithLabelValues(updated.Tier).
			Observe(time.Since(updated.CreatedAt).Seconds())
		if s.notifier != nil {
			s.notifier.RequestCompleted(updated)
		}
	}

	s.log.Info().
		Uint("request_id", requestID).
		Uint("judge_id", judgeID).
		Int("received", updated.ReceivedVerdictCount).
		Int("target", updated.TargetVerdictCount).
		Str("status", updated.Status).
		Msg("Verdict accepted")

	return updated, verdict, nil
}

// Cancel transitions an open or in-progress request to cancelled. The debit is
// refunded only when no judge has responded yet; once verdicts exist the
// credit stays spent because judges were already paid for their work.
func (s *Service) Cancel(ctx context.Context, requestID, userID uint) (*models.VerdictRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load request %d: %w", requestID, err)
	}
	if request.UserID != userID {
		return nil, apperrors.ErrNotRequestOwner
	}

	cancelled, err := s.requests.Cancel(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel request %d: %w", requestID, err)
	}
	if !cancelled {
		return nil, apperrors.ErrRequestClosed
	}
	metrics.OpenRequests.Dec()

	if request.ReceivedVerdictCount == 0 {
		if err := s.ledger.Refund(ctx, userID, s.cfg.Credits.RequestCost, models.ReasonRequestCancelled); err != nil {
			s.log.Error().Err(err).Uint("request_id", requestID).Msg("Failed to refund cancelled request")
		}
	}

	s.invalidateRequest(ctx, requestID)
	updated, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload request %d: %w", requestID, err)
	}

	s.log.Info().
		Uint("request_id", requestID).
		Uint("user_id", userID).
		Msg("Request cancelled")
	return updated, nil
}

// GetByID retrieves a request; verdict details are included only for the owner.
func (s *Service) GetByID(ctx context.Context, requestID, callerID uint) (*models.VerdictRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to load request %d: %w", requestID, err)
	}
	if request.UserID != callerID {
		return request, nil
	}
	full, err := s.requests.GetByIDWithVerdicts(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request %d with verdicts: %w", requestID, err)
	}
	return full, nil
}

// ListOpenForJudge returns requests the judge may respond to.
func (s *Service) ListOpenForJudge(ctx context.Context, judgeID uint, limit int) ([]models.VerdictRequest, error) {
	return s.requests.ListOpenForJudge(ctx, judgeID, limit)
}

// ListByUser returns a submitter's own requests.
func (s *Service) ListByUser(ctx context.Context, userID uint) ([]models.VerdictRequest, error) {
	return s.requests.ListByUser(ctx, userID)
}

// accrue records the earning for an accepted verdict and, on community tiers,
// grants the judge their credit reward. Failures are logged and surfaced by
// reconciliation; the accepted verdict stands either way.
func (s *Service) accrue(ctx context.Context, verdict *models.VerdictResponse, tierName string, judgeID uint) {
	if _, err := s.earnings.Record(ctx, verdict, tierName); err != nil && !errors.Is(err, apperrors.ErrEarningExists) {
		s.log.Error().Err(err).
			Uint("verdict_id", verdict.ID).
			Uint("judge_id", judgeID).
			Msg("Failed to accrue earning")
	}

	if tier := s.cfg.TierByName(tierName); tier != nil && tier.RewardCredits > 0 {
		if err := s.ledger.Grant(ctx, judgeID, tier.RewardCredits, models.ReasonCommunityReward); err != nil {
			s.log.Error().Err(err).
				Uint("judge_id", judgeID).
				Msg("Failed to grant community judging reward")
		}
	}
}

func (s *Service) removeVerdict(ctx context.Context, verdictID uint) {
	if err := s.verdicts.Delete(ctx, verdictID); err != nil {
		s.log.Error().Err(err).Uint("verdict_id", verdictID).Msg("Failed to remove compensated verdict")
	}
}

func (s *Service) invalidateRequest(ctx context.Context, requestID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cache.RequestKey(requestID)); err != nil {
		s.log.Warn().Err(err).Uint("request_id", requestID).Msg("Failed to invalidate request cache")
	}
}
