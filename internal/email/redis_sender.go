package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Shubhams-here/Dabba-Drop/internal/config"
	"github.com/Shubhams-here/Dabba-Drop/internal/models"
)

// RedisSender implements the Sender interface by storing emails in Redis
type RedisSender struct {
	client *redis.Client
	cfg    *config.Config
}

// NewRedisSender creates a new RedisSender
func NewRedisSender(client *redis.Client, cfg *config.Config) Sender {
	return &RedisSender{
		client: client,
		cfg:    cfg,
	}
}

// Send stores a representation of the email in Redis instead of sending it via SMTP.
// End-to-end tests retrieve it through the service API's getTestEmail method.
func (s *RedisSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	// Classify the mail from its subject so tests can retrieve it by kind.
	// This is a heuristic keyed on the subjects of the default templates.
	mailType := "unknown"
	switch {
	case strings.Contains(subject, "Thank you for contacting"):
		mailType = models.TmplContactConfirmation
	case strings.Contains(subject, "New Contact Form Submission"):
		mailType = models.TmplContactAdminAlert
	case strings.HasPrefix(subject, "Re:"):
		mailType = models.TmplContactResponse
	case strings.Contains(subject, "Delivery OTP"):
		mailType = models.TmplDeliveryOtp
	case strings.Contains(subject, "Delivered"):
		mailType = models.TmplDeliveryConfirmation
	}

	// For Redis, we typically deal with a single primary recipient for the mock key.
	// If `to` has multiple addresses, we'll use the first one for the key.
	primaryTo := ""
	if len(to) > 0 {
		primaryTo = to[0]
	}

	emailData := map[string]interface{}{
		"to":       strings.Join(to, ", "), // Store all recipients as a comma-separated string
		"from":     s.cfg.SmtpFromAddress,
		"subject":  subject,
		"body":     string(rawMessage), // Storing the full raw message as body for simplicity in mock
		"sent_at":  time.Now().UTC().Format(time.RFC3339Nano),
		"mailType": mailType, // Include for potential debugging
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("failed to marshal email data: %w", err)
	}

	// Store as a simple String with TTL (e.g., 5 minutes)
	key := fmt.Sprintf("mockemail:%s:%s", primaryTo, mailType)
	ttl := 5 * time.Minute

	err = s.client.Set(ctx, key, jsonData, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to store email in Redis key '%s': %w", key, err)
	}

	log.Printf("Mock email stored in Redis key '%s' (TTL: %v, To: %s, Subject: %s)", key, ttl, strings.Join(to, ", "), subject)
	return nil
}
