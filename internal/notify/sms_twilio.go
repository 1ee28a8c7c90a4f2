package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// SMSSender sends a text message to clinic staff.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type twilioMessageAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSMSSender sends SMS through the Twilio REST API.
type TwilioSMSSender struct {
	api    twilioMessageAPI
	from   string
	logger *logging.Logger
}

// TwilioConfig holds the account credentials and sending number.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

func NewTwilioSMSSender(cfg TwilioConfig, logger *logging.Logger) (*TwilioSMSSender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return nil, errors.New("notify: twilio account sid and auth token are required")
	}
	if cfg.FromNumber == "" {
		return nil, errors.New("notify: twilio from number is required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioSMSSender(client.Api, cfg.FromNumber, logger), nil
}

func newTwilioSMSSender(api twilioMessageAPI, from string, logger *logging.Logger) *TwilioSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSMSSender{api: api, from: from, logger: logger}
}

// SendSMS sends body to the E.164 number to. The Twilio SDK call is not
// context-aware, so a cancelled ctx is only checked up front.
func (s *TwilioSMSSender) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		s.logger.Error("twilio sms failed", "error", err, "to", to)
		return fmt.Errorf("notify: twilio send to %s failed: %w", to, err)
	}
	sid := ""
	if msg != nil && msg.Sid != nil {
		sid = *msg.Sid
	}
	s.logger.Info("sms sent via twilio", "to", to, "sid", sid)
	return nil
}

// StubSMSSender logs instead of sending.
type StubSMSSender struct {
	logger *logging.Logger
}

func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

func (s *StubSMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("stub SMS sender: would send", "to", to, "body_preview", truncate(body, 50))
	return nil
}

func truncate(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}

var (
	_ SMSSender = (*TwilioSMSSender)(nil)
	_ SMSSender = (*StubSMSSender)(nil)
)
