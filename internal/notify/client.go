// Package notify provides a webhook client for outbound marketplace event
// notifications. Delivery is best-effort: failures are logged, never
// propagated into the transaction flow.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/verdictapp/verdict/internal/config"
	"github.com/verdictapp/verdict/internal/models"
	"github.com/verdictapp/verdict/pkg/logger"
)

// Client posts marketplace events to a configured webhook.
type Client struct {
	webhookURL string
	enabled    bool
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new notification client.
func NewClient(cfg *config.NotificationsConfig, log *logger.Logger) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Event is the webhook payload.
type Event struct {
	Type      string    `json:"type"`
	RequestID uint      `json:"request_id,omitempty"`
	UserID    uint      `json:"user_id,omitempty"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// RequestCompleted notifies that a request reached its verdict target.
func (c *Client) RequestCompleted(request *models.VerdictRequest) {
	c.send(Event{
		Type:      "request.completed",
		RequestID: request.ID,
		UserID:    request.UserID,
		Text: fmt.Sprintf("Request %d received all %d verdicts",
			request.ID, request.TargetVerdictCount),
	})
}

// EarningsAvailable notifies a judge that matured earnings became payable.
func (c *Client) EarningsAvailable(judgeID uint, amountCents int64) {
	c.send(Event{
		Type:   "earnings.available",
		UserID: judgeID,
		Text:   fmt.Sprintf("Earnings of %d cents are now available for payout", amountCents),
	})
}

func (c *Client) send(event Event) {
	if !c.enabled {
		c.log.Debug().Str("type", event.Type).Msg("Notifications disabled, skipping event")
		return
	}
	event.Timestamp = time.Now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		c.log.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal notification")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		c.log.Error().Err(err).Str("type", event.Type).Msg("Failed to build notification request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("type", event.Type).Msg("Failed to deliver notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("type", event.Type).
			Msg("Notification webhook returned non-success status")
	}
}
