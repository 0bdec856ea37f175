// Package billing integrates the Stripe billing provider. Its only effect on
// the marketplace core is "credits purchased, grant N credits to user Y",
// issued through the credit ledger after webhook signature verification and
// event deduplication.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"gorm.io/gorm"

	"github.com/verdictapp/verdict/internal/config"
	"github.com/verdictapp/verdict/internal/metrics"
	"github.com/verdictapp/verdict/internal/models"
	"github.com/verdictapp/verdict/internal/repository"
	"github.com/verdictapp/verdict/pkg/logger"
)

// ErrInvalidSignature indicates the webhook payload failed signature
// verification and must be rejected with a 400.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ErrUnknownPack indicates a checkout request for a pack that is not configured.
var ErrUnknownPack = errors.New("unknown credit pack")

// Ledger interface for granting purchased credits.
type Ledger interface {
	Grant(ctx context.Context, userID uint, amount int, reason string) error
}

// EventStore interface for webhook event deduplication.
type EventStore interface {
	Create(ctx context.Context, event *models.BillingEvent) error
	GetByProviderEventID(ctx context.Context, provider, providerEventID string) (*models.BillingEvent, error)
	MarkProcessed(ctx context.Context, eventID uint, processingError string) error
}

// Service handles checkout session creation and webhook consumption.
type Service struct {
	stripeClient *client.API
	events       EventStore
	ledger       Ledger
	cfg          *config.StripeConfig
	packs        []config.CreditPackConfig
	log          *logger.Logger
}

// NewService creates a new billing service. The Stripe client is constructed
// once here and injected everywhere it is needed.
func NewService(
	cfg *config.StripeConfig,
	packs []config.CreditPackConfig,
	events *repository.BillingEventRepository,
	ledger Ledger,
	log *logger.Logger,
) *Service {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return &Service{
		stripeClient: sc,
		events:       events,
		ledger:       ledger,
		cfg:          cfg,
		packs:        packs,
		log:          log,
	}
}

// NewServiceWithInterfaces creates a new billing service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	cfg *config.StripeConfig,
	packs []config.CreditPackConfig,
	events EventStore,
	ledger Ledger,
	log *logger.Logger,
) *Service {
	svc := NewService(cfg, packs, nil, ledger, log)
	svc.events = events
	return svc
}

// CreateCheckoutSession starts a Stripe checkout for a credit pack. The user
// id and pack size travel in session metadata and come back on the webhook.
func (s *Service) CreateCheckoutSession(ctx context.Context, userID uint, packID string) (string, error) {
	pack := s.packByID(packID)
	if pack == nil {
		return "", ErrUnknownPack
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(pack.PriceCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%d verdict credits", pack.Credits)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", strconv.FormatUint(uint64(userID), 10))
	params.AddMetadata("credits", strconv.Itoa(pack.Credits))

	session, err := s.stripeClient.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.log.Info().
		Uint("user_id", userID).
		Str("pack", packID).
		Str("session_id", session.ID).
		Msg("Checkout session created")
	return session.URL, nil
}

// HandleWebhook verifies, deduplicates, and processes one webhook delivery.
// Redelivery of an event that already processed cleanly is acknowledged
// without reprocessing so a credit pack is never granted twice; redelivery of
// one whose processing failed runs it again, because the provider retries
// exactly for that case.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.cfg.WebhookSecret)
	if err != nil {
		metrics.BillingEventsTotal.WithLabelValues("unknown", "rejected").Inc()
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	record := &models.BillingEvent{
		Provider:        "stripe",
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		Payload:         string(event.Data.Raw),
	}
	if err := s.events.Create(ctx, record); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to record webhook event: %w", err)
		}
		existing, gerr := s.events.GetByProviderEventID(ctx, record.Provider, event.ID)
		if gerr != nil {
			return fmt.Errorf("failed to load redelivered webhook event: %w", gerr)
		}
		if existing.ProcessedAt != nil && existing.ProcessingError == "" {
			s.log.Info().Str("event_id", event.ID).Msg("Duplicate webhook delivery ignored")
			metrics.BillingEventsTotal.WithLabelValues(string(event.Type), "duplicate").Inc()
			return nil
		}
		s.log.Info().Str("event_id", event.ID).Msg("Reprocessing webhook delivery that previously failed")
		record = existing
	}

	var processErr error
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		processErr = s.handleCheckoutCompleted(ctx, event.Data.Raw)
	case stripe.EventTypeCheckoutSessionExpired:
		s.log.Debug().Str("event_id", event.ID).Msg("Checkout session expired")
	default:
		s.log.Debug().Str("type", string(event.Type)).Msg("Unhandled webhook event type")
	}

	errMsg := ""
	status := "processed"
	if processErr != nil {
		errMsg = processErr.Error()
		status = "failed"
	}
	if err := s.events.MarkProcessed(ctx, record.ID, errMsg); err != nil {
		s.log.Error().Err(err).Uint("event_id", record.ID).Msg("Failed to mark webhook event processed")
	}
	metrics.BillingEventsTotal.WithLabelValues(string(event.Type), status).Inc()

	return processErr
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, raw json.RawMessage) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	userID, err := strconv.ParseUint(session.Metadata["user_id"], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid user_id metadata on session %s: %w", session.ID, err)
	}
	credits, err := strconv.Atoi(session.Metadata["credits"])
	if err != nil || credits <= 0 {
		return fmt.Errorf("invalid credits metadata on session %s", session.ID)
	}

	if err := s.ledger.Grant(ctx, uint(userID), credits, models.ReasonCreditPurchase); err != nil {
		return fmt.Errorf("failed to grant purchased credits: %w", err)
	}

	s.log.Info().
		Uint64("user_id", userID).
		Int("credits", credits).
		Str("session_id", session.ID).
		Msg("Purchased credits granted")
	return nil
}

func (s *Service) packByID(id string) *config.CreditPackConfig {
	for i := range s.packs {
		if s.packs[i].ID == id {
			return &s.packs[i]
		}
	}
	return nil
}
