package resend

import (
	"context"
	"fmt"
	"sort"

	"github.com/resend/resend-go/v3"

	"github.com/saasfly/saasfly/pkg/mailer"
)

// Sender implements mailer.Sender on the Resend API.
type Sender struct {
	client *resend.Client
	config Config
}

// New creates a Resend sender.
func New(cfg Config) *Sender {
	return &Sender{client: resend.NewClient(cfg.APIKey), config: cfg}
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	_, err := s.client.Emails.SendWithContext(ctx, buildRequest(s.config, email))
	if err != nil {
		return fmt.Errorf("resend: send email: %w", err)
	}
	return nil
}

func buildRequest(cfg Config, email *mailer.Email) *resend.SendEmailRequest {
	from := email.From
	if from == "" {
		from = cfg.From()
	}
	req := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
		Headers: email.Headers,
	}
	if len(email.Tags) > 0 {
		names := make([]string, 0, len(email.Tags))
		for name := range email.Tags {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			req.Tags = append(req.Tags, resend.Tag{Name: name, Value: email.Tags[name]})
		}
	}
	return req
}
