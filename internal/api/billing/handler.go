// Package billing provides the HTTP endpoints for credit purchases: checkout
// session creation and the Stripe webhook.
package billing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verdictapp/verdict/internal/apperrors"
	billingsvc "github.com/verdictapp/verdict/internal/billing"
	"github.com/verdictapp/verdict/internal/models"
	"github.com/verdictapp/verdict/pkg/logger"
)

// BillingService interface for billing operations.
type BillingService interface {
	CreateCheckoutSession(ctx context.Context, userID uint, packID string) (string, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// AccountService interface for resolving the caller's profile.
type AccountService interface {
	GetProfileByAuthID(ctx context.Context, authID string) (*models.Profile, error)
}

// Handler handles billing API requests.
type Handler struct {
	billingService BillingService
	accountService AccountService
	log            *logger.Logger
}

// NewHandler creates a new billing handler.
func NewHandler(billingService BillingService, accountService AccountService, log *logger.Logger) *Handler {
	return &Handler{
		billingService: billingService,
		accountService: accountService,
		log:            log,
	}
}

// checkoutRequest is the body for CreateCheckout.
type checkoutRequest struct {
	PackID string `json:"pack_id" binding:"required"`
}

// CreateCheckout starts a checkout session for a credit pack.
// POST /api/v1/billing/checkout.
func (h *Handler) CreateCheckout(c *gin.Context) {
	authID := c.GetHeader("X-Auth-User-ID")
	if authID == "" {
		h.errorResponse(c, http.StatusUnauthorized, "missing identity")
		return
	}

	profile, err := h.accountService.GetProfileByAuthID(c.Request.Context(), authID)
	if err != nil {
		h.errorResponse(c, apperrors.HTTPStatus(err), "failed to resolve profile")
		return
	}

	var body checkoutRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	url, err := h.billingService.CreateCheckoutSession(c.Request.Context(), profile.ID, body.PackID)
	if err != nil {
		if errors.Is(err, billingsvc.ErrUnknownPack) {
			h.errorResponse(c, http.StatusBadRequest, "unknown credit pack")
			return
		}
		h.log.Error().Err(err).Uint("user_id", profile.ID).Msg("Failed to create checkout session")
		h.errorResponse(c, http.StatusInternalServerError, "failed to create checkout session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkout_url": url})
}

// Webhook consumes Stripe webhook deliveries.
// POST /api/v1/billing/webhook.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "failed to read payload")
		return
	}

	err = h.billingService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, billingsvc.ErrInvalidSignature) {
			h.errorResponse(c, http.StatusBadRequest, "invalid signature")
			return
		}
		h.log.Error().Err(err).Msg("Failed to process billing webhook")
		h.errorResponse(c, http.StatusInternalServerError, "failed to process webhook")
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
