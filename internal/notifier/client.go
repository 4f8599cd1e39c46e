// Package notifier provides a webhook client for engagement notifications.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stylay/checkin-service/internal/config"
	"github.com/stylay/checkin-service/internal/metrics"
	"github.com/stylay/checkin-service/pkg/logger"
)

// Client posts JSON messages to a chat webhook.
type Client struct {
	webhookURL string
	username   string
	enabled    bool
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a new webhook client.
func NewClient(cfg *config.NotifierConfig, log *logger.Logger) *Client {
	return &Client{
		webhookURL: cfg.WebhookURL,
		username:   cfg.Username,
		enabled:    cfg.Enabled,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Message represents a webhook message payload.
type Message struct {
	Username string `json:"username,omitempty"`
	Text     string `json:"text,omitempty"`
}

// SendMessage sends a message to the webhook.
func (c *Client) SendMessage(ctx context.Context, msg *Message) error {
	if !c.enabled {
		c.log.Debug().Msg("Notifier is disabled, skipping message")
		return nil
	}

	if msg.Username == "" {
		msg.Username = c.username
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordNotificationFailed("network_error")
		return fmt.Errorf("failed to send webhook message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordNotificationFailed("http_error")
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	c.log.Debug().Msg("Sent webhook message")

	return nil
}

// SendLoyaltyBadgeUnlocked announces that a user earned the permanent
// loyalty badge.
func (c *Client) SendLoyaltyBadgeUnlocked(ctx context.Context, userID uint, streak int) error {
	text := fmt.Sprintf("🏆 **Loyalty badge unlocked!**\n\nUser %d reached a **%d-day** check-in streak.", userID, streak)

	if err := c.SendMessage(ctx, &Message{Text: text}); err != nil {
		return err
	}
	metrics.RecordNotificationSent("loyalty_badge")
	return nil
}

// DailySummary carries the engagement numbers for one day.
type DailySummary struct {
	Date          time.Time
	CheckinsToday int64
	ActiveStreaks int64
	BadgeHolders  int64
}

// SendDailySummary posts the daily engagement summary.
func (c *Client) SendDailySummary(ctx context.Context, summary *DailySummary) error {
	text := fmt.Sprintf(
		"### 📅 Daily Check-in Summary — %s\n\n• Check-ins today: **%d**\n• Active streaks: **%d**\n• Loyalty badge holders: **%d**\n",
		summary.Date.Format(time.DateOnly),
		summary.CheckinsToday,
		summary.ActiveStreaks,
		summary.BadgeHolders,
	)

	if err := c.SendMessage(ctx, &Message{Text: text}); err != nil {
		return err
	}
	metrics.RecordNotificationSent("daily_summary")
	return nil
}
