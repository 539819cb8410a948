package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"safeher_travel/internal/adapters/observability"
)

type messageCreator interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

// TwilioSMS sends SMS through the Twilio messages API.
type TwilioSMS struct {
	api  messageCreator
	from string
}

func NewTwilioSMS(accountSID, authToken, from string) (*TwilioSMS, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, errors.New("twilio credentials are required")
	}
	c := twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken})
	return &TwilioSMS{api: c.Api, from: from}, nil
}

func (t *TwilioSMS) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	start := time.Now()
	msg, err := t.api.CreateMessage(params)
	if err != nil {
		observability.ObserveExternal("twilio", "messages", 0, time.Since(start))
		observability.ObserveNotification("sms", "failed")
		return fmt.Errorf("twilio send to %s: %w", maskPhone(to), err)
	}
	observability.ObserveExternal("twilio", "messages", 201, time.Since(start))
	observability.ObserveNotification("sms", "sent")
	if msg != nil && msg.Sid != nil {
		log.Info().Str("sid", *msg.Sid).Str("to", maskPhone(to)).Msg("sms sent")
	}
	return nil
}

// LogSMS records messages instead of sending them. Used when no provider is configured.
type LogSMS struct{}

func (LogSMS) SendSMS(ctx context.Context, to, body string) error {
	observability.ObserveNotification("sms", "simulated")
	log.Info().Str("to", maskPhone(to)).Int("len", len(body)).Msg("sms simulated")
	return nil
}

func maskPhone(p string) string {
	p = strings.TrimSpace(p)
	if len(p) <= 4 {
		return p
	}
	return strings.Repeat("*", len(p)-4) + p[len(p)-4:]
}
