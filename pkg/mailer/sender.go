package mailer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/saasfly/saasfly/pkg/logger"
)

// Sender delivers a prepared email.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, email *Email) error

// Send implements Sender.
func (f SenderFunc) Send(ctx context.Context, email *Email) error { return f(ctx, email) }

// LogSender drops emails after logging a warning. It stands in when no
// delivery provider is configured.
type LogSender struct {
	Logger *slog.Logger
}

// Send implements Sender.
func (s LogSender) Send(ctx context.Context, email *Email) error {
	log := s.Logger
	if log == nil {
		log = logger.NewNope()
	}
	log.WarnContext(ctx, "email provider not configured, skipping send",
		slog.String("to", strings.Join(email.To, ",")),
		slog.String("subject", email.Subject),
	)
	return nil
}
