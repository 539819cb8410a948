package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"safeher_travel/internal/adapters/observability"
)

const senderName = "SafeHer Travel"

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridEmail struct {
	api  mailSender
	from string
}

func NewSendGridEmail(apiKey, from string) (*SendGridEmail, error) {
	if apiKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	return &SendGridEmail{api: sendgrid.NewSendClient(apiKey), from: from}, nil
}

func (s *SendGridEmail) SendEmail(ctx context.Context, to, subject, body string) error {
	msg := mail.NewSingleEmail(mail.NewEmail(senderName, s.from), subject, mail.NewEmail("", to), body, "")

	start := time.Now()
	res, err := s.api.SendWithContext(ctx, msg)
	if err != nil {
		observability.ObserveExternal("sendgrid", "mail_send", 0, time.Since(start))
		observability.ObserveNotification("email", "failed")
		return fmt.Errorf("sendgrid send: %w", err)
	}
	observability.ObserveExternal("sendgrid", "mail_send", res.StatusCode, time.Since(start))
	if res.StatusCode >= 300 {
		observability.ObserveNotification("email", "failed")
		return fmt.Errorf("sendgrid send: status %d", res.StatusCode)
	}
	observability.ObserveNotification("email", "sent")
	return nil
}

type LogEmail struct{}

func (LogEmail) SendEmail(ctx context.Context, to, subject, _ string) error {
	observability.ObserveNotification("email", "simulated")
	log.Info().Str("to", to).Str("subject", subject).Msg("email simulated")
	return nil
}
