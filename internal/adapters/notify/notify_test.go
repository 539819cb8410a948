package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeTwilio struct {
	params *twilioapi.CreateMessageParams
	err    error
}

func (f *fakeTwilio) CreateMessage(p *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error) {
	f.params = p
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioapi.ApiV2010Message{Sid: &sid}, nil
}

type fakeSendGrid struct {
	msg    *mail.SGMailV3
	status int
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	f.msg = m
	return &rest.Response{StatusCode: f.status}, nil
}

func TestTwilioSMS_SetsParams(t *testing.T) {
	f := &fakeTwilio{}
	s := &TwilioSMS{api: f, from: "+15550000"}

	require.NoError(t, s.SendSMS(context.Background(), "+919876543210", "help"))
	assert.Equal(t, "+919876543210", *f.params.To)
	assert.Equal(t, "+15550000", *f.params.From)
	assert.Equal(t, "help", *f.params.Body)
}

func TestTwilioSMS_WrapsError(t *testing.T) {
	s := &TwilioSMS{api: &fakeTwilio{err: errors.New("down")}, from: "x"}
	err := s.SendSMS(context.Background(), "+919876543210", "help")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "9876543210")
}

func TestSendGridEmail_StatusHandling(t *testing.T) {
	f := &fakeSendGrid{status: 202}
	e := &SendGridEmail{api: f, from: "alerts@safehertravel.com"}
	require.NoError(t, e.SendEmail(context.Background(), "a@b.c", "SOS", "body"))
	assert.Equal(t, "SOS", f.msg.Subject)
	assert.Equal(t, "alerts@safehertravel.com", f.msg.From.Address)

	f.status = 400
	assert.Error(t, e.SendEmail(context.Background(), "a@b.c", "SOS", "body"))
}

func TestConstructorsRequireCredentials(t *testing.T) {
	_, err := NewTwilioSMS("", "tok", "+1")
	assert.Error(t, err)
	_, err = NewSendGridEmail("", "x@y.z")
	assert.Error(t, err)
}

func TestLogSenders(t *testing.T) {
	assert.NoError(t, LogSMS{}.SendSMS(context.Background(), "+91", "x"))
	assert.NoError(t, LogEmail{}.SendEmail(context.Background(), "a@b.c", "s", "b"))
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "*********3210", maskPhone("+919876543210"))
	assert.Equal(t, "112", maskPhone("112"))
}
