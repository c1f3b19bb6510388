package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NoopSender discards email. Used when no provider API key is
// configured, so the rest of the app can treat sending as always wired.
type NoopSender struct{}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send logs the would-be delivery and returns a synthetic message ID.
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	slog.Info("email_dropped", "provider", "noop", "to", req.To, "subject", req.Subject)
	now := time.Now()
	return SendResult{MessageID: fmt.Sprintf("noop-%d", now.UnixNano()), SentAt: now}, nil
}
