// Package resend delivers mail through the Resend API.
package resend

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"github.com/candlewaxgames/candlewax/pkg/mailer"
)

// Config holds the Resend credentials and the default sender.
type Config struct {
	APIKey      string `mapstructure:"resend_api_key"`
	SenderEmail string `mapstructure:"resend_from_email"`
	SenderName  string `mapstructure:"resend_from_name"`
}

// Sender implements mailer.Sender.
type Sender struct {
	client *resend.Client
	from   string
}

// New creates a Sender.
func New(cfg Config) *Sender {
	return &Sender{
		client: resend.NewClient(cfg.APIKey),
		from:   mailer.Address(cfg.SenderName, cfg.SenderEmail),
	}
}

func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	from := email.From
	if from == "" {
		from = s.from
	}
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}
