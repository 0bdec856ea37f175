// Package marketplace provides REST API handlers for the verdict marketplace:
// session initialization, request creation, verdict submission, and earnings.
package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verdictapp/verdict/internal/apperrors"
	"github.com/verdictapp/verdict/internal/models"
	"github.com/verdictapp/verdict/internal/service/account"
	"github.com/verdictapp/verdict/internal/service/earnings"
	"github.com/verdictapp/verdict/internal/service/requests"
	"github.com/verdictapp/verdict/pkg/logger"
)

// AccountService interface for profile operations.
type AccountService interface {
	InitializeUser(ctx context.Context, identity account.Identity) (*account.InitResult, error)
	GetProfileByAuthID(ctx context.Context, authID string) (*models.Profile, error)
}

// RequestService interface for the request state machine.
type RequestService interface {
	Create(ctx context.Context, userID uint, payload requests.CreatePayload) (*models.VerdictRequest, error)
	AddJudgeVerdict(ctx context.Context, requestID, judgeID uint, payload requests.VerdictPayload) (*models.VerdictRequest, *models.VerdictResponse, error)
	Cancel(ctx context.Context, requestID, userID uint) (*models.VerdictRequest, error)
	GetByID(ctx context.Context, requestID, callerID uint) (*models.VerdictRequest, error)
	ListOpenForJudge(ctx context.Context, judgeID uint, limit int) ([]models.VerdictRequest, error)
	ListByUser(ctx context.Context, userID uint) ([]models.VerdictRequest, error)
}

// EarningsService interface for earnings summaries.
type EarningsService interface {
	Summary(ctx context.Context, judgeID uint) (*models.EarningsSummary, error)
}

// Handler handles marketplace API requests.
type Handler struct {
	accountService  AccountService
	requestService  RequestService
	earningsService EarningsService
	log             *logger.Logger
}

// NewHandler creates a new marketplace handler.
func NewHandler(accountService *account.Service, requestService *requests.Service, earningsService *earnings.Service, log *logger.Logger) *Handler {
	return &Handler{
		accountService:  accountService,
		requestService:  requestService,
		earningsService: earningsService,
		log:             log,
	}
}

// NewHandlerWithInterfaces creates a new marketplace handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(accountService AccountService, requestService RequestService, earningsService EarningsService, log *logger.Logger) *Handler {
	return &Handler{
		accountService:  accountService,
		requestService:  requestService,
		earningsService: earningsService,
		log:             log,
	}
}

// InitSession ensures a profile exists for the authenticated identity.
// POST /api/v1/session.
func (h *Handler) InitSession(c *gin.Context) {
	authID := c.GetHeader("X-Auth-User-ID")
	if authID == "" {
		h.errorResponse(c, http.StatusUnauthorized, "missing identity")
		return
	}

	result, err := h.accountService.InitializeUser(c.Request.Context(), account.Identity{
		AuthID:      authID,
		Email:       c.GetHeader("X-Auth-Email"),
		DisplayName: c.GetHeader("X-Auth-Name"),
	})
	if err != nil {
		h.handleError(c, err, "Failed to initialize session")
		return
	}

	h.log.Info().
		Str("auth_id", authID).
		Bool("is_new_user", result.IsNewUser).
		Msg("Session initialized")

	c.JSON(http.StatusOK, gin.H{
		"is_new_user": result.IsNewUser,
		"profile":     result.Profile,
	})
}

// GetProfile returns the caller's profile.
// GET /api/v1/profile.
func (h *Handler) GetProfile(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// CreateRequest creates a verdict request, spending one credit.
// POST /api/v1/requests.
func (h *Handler) CreateRequest(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}

	var payload requests.CreatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	request, err := h.requestService.Create(c.Request.Context(), profile.ID, payload)
	if err != nil {
		h.handleError(c, err, "Failed to create request")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// ListOpenRequests returns requests the caller may judge.
// GET /api/v1/requests?limit=20.
func (h *Handler) ListOpenRequests(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}

	limit, err := h.parseLimit(c, 20)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	open, err := h.requestService.ListOpenForJudge(c.Request.Context(), profile.ID, limit)
	if err != nil {
		h.handleError(c, err, "Failed to list open requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests":     open,
		"total":        len(open),
		"generated_at": time.Now().UTC(),
	})
}

// ListMyRequests returns the caller's own requests.
// GET /api/v1/requests/mine.
func (h *Handler) ListMyRequests(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}

	mine, err := h.requestService.ListByUser(c.Request.Context(), profile.ID)
	if err != nil {
		h.handleError(c, err, "Failed to list requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": mine,
		"total":    len(mine),
	})
}

// GetRequest returns a single request; the owner also sees its verdicts.
// GET /api/v1/requests/:id.
func (h *Handler) GetRequest(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}

	requestID, err := h.parseRequestID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	request, err := h.requestService.GetByID(c.Request.Context(), requestID, profile.ID)
	if err != nil {
		h.handleError(c, err, "Failed to get request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// SubmitVerdict records the caller's verdict on a request.
// POST /api/v1/requests/:id/verdicts.
func (h *Handler) SubmitVerdict(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}

	requestID, err := h.parseRequestID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload requests.VerdictPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	request, verdict, err := h.requestService.AddJudgeVerdict(c.Request.Context(), requestID, profile.ID, payload)
	if err != nil {
		h.handleError(c, err, "Failed to submit verdict")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"request": request,
		"verdict": verdict,
	})
}

// CancelRequest cancels the caller's own request.
// POST /api/v1/requests/:id/cancel.
func (h *Handler) CancelRequest(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}

	requestID, err := h.parseRequestID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	request, err := h.requestService.Cancel(c.Request.Context(), requestID, profile.ID)
	if err != nil {
		h.handleError(c, err, "Failed to cancel request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// GetEarningsSummary returns the caller's earnings totals in whole currency
// units.
// GET /api/v1/earnings/summary.
func (h *Handler) GetEarningsSummary(c *gin.Context) {
	profile, ok := h.currentProfile(c)
	if !ok {
		return
	}

	summary, err := h.earningsService.Summary(c.Request.Context(), profile.ID)
	if err != nil {
		h.handleError(c, err, "Failed to get earnings summary")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_earned":         toWholeUnits(summary.TotalEarnedCents),
		"pending":              toWholeUnits(summary.PendingCents),
		"available_for_payout": toWholeUnits(summary.AvailableCents),
		"paid":                 toWholeUnits(summary.PaidCents),
		"generated_at":         time.Now().UTC(),
	})
}

// Helper functions

// toWholeUnits converts cents to whole currency units for the API boundary.
func toWholeUnits(cents int64) float64 {
	return float64(cents) / 100
}

// currentProfile resolves the caller's profile from the identity the auth
// proxy asserted. Absence is a hard error, never a trigger to create one.
func (h *Handler) currentProfile(c *gin.Context) (*models.Profile, bool) {
	authID := c.GetHeader("X-Auth-User-ID")
	if authID == "" {
		h.errorResponse(c, http.StatusUnauthorized, "missing identity")
		return nil, false
	}

	profile, err := h.accountService.GetProfileByAuthID(c.Request.Context(), authID)
	if err != nil {
		h.handleError(c, err, "Failed to resolve profile")
		return nil, false
	}
	return profile, true
}

// parseRequestID extracts and validates the request ID from the URL parameter.
func (h *Handler) parseRequestID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid request ID: %s", idStr)
	}
	return uint(id), nil
}

// parseLimit extracts and validates the limit query parameter.
func (h *Handler) parseLimit(c *gin.Context, defaultLimit int) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > 100 {
		return 0, fmt.Errorf("limit must be between 1 and 100")
	}
	return limit, nil
}

// handleError maps domain errors to their HTTP status; anything untyped is
// logged and surfaced as a generic 500.
func (h *Handler) handleError(c *gin.Context, err error, message string) {
	if appErr := apperrors.As(err); appErr != nil {
		c.JSON(appErr.Status, gin.H{
			"error":     appErr.Message,
			"code":      appErr.Code,
			"timestamp": time.Now().UTC(),
		})
		return
	}
	h.log.Error().Err(err).Msg(message)
	h.errorResponse(c, http.StatusInternalServerError, message)
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
