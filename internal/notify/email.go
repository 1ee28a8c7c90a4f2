package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// EmailSender delivers one staff email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a staff notification. Tags end up as SendGrid categories or
// SES message tags so urgent leads can be filtered in the provider dashboards.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
	Tags    []string
}

// From identifies the clinic mailbox that notifications are sent from.
type From struct {
	Email string
	Name  string
}

func (f From) withDefaults() From {
	if f.Name == "" {
		f.Name = "Selaro Rezeption"
	}
	return f
}

type sendGridAPI interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridSender struct {
	client sendGridAPI
	from   From
	logger *logging.Logger
}

// NewSendGridSender returns nil when apiKey is empty.
func NewSendGridSender(apiKey string, from From, logger *logging.Logger) *SendGridSender {
	if apiKey == "" {
		return nil
	}
	return newSendGridSender(sendgrid.NewSendClient(apiKey), from, logger)
}

func newSendGridSender(client sendGridAPI, from From, logger *logging.Logger) *SendGridSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{client: client, from: from.withDefaults(), logger: logger}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	html := msg.HTML
	if html == "" {
		html = msg.Text
	}
	message := mail.NewSingleEmail(
		mail.NewEmail(s.from.Name, s.from.Email),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Text,
		html,
	)
	if len(msg.Tags) > 0 {
		message.AddCategories(msg.Tags...)
	}

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send to %s: %w", msg.To, err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Warn("notify: sendgrid rejected email", "status", resp.StatusCode, "body", resp.Body, "to", msg.To)
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}
	s.logger.Debug("notify: email sent", "provider", "sendgrid", "to", msg.To, "status", resp.StatusCode)
	return nil
}

// StubEmailSender only logs. Used in development when no provider is configured.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("notify: email not sent (stub)", "to", msg.To, "subject", msg.Subject, "tags", msg.Tags)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
