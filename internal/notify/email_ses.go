package notify

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESSender struct {
	client sesAPI
	from   From
	logger *logging.Logger
}

// NewSESSender returns nil without a client. client is usually a *sesv2.Client.
func NewSESSender(client sesAPI, from From, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SESSender{client: client, from: from.withDefaults(), logger: logger}
}

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	body := &types.Body{}
	if msg.Text != "" {
		body.Text = sesContent(msg.Text)
	}
	if msg.HTML != "" {
		body.Html = sesContent(msg.HTML)
	}
	to := (&mail.Address{Name: msg.ToName, Address: msg.To}).String()

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String((&mail.Address{Name: s.from.Name, Address: s.from.Email}).String()),
		Destination:      &types.Destination{ToAddresses: []string{to}},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: sesContent(msg.Subject), Body: body},
		},
		EmailTags: sesTags(msg.Tags),
	})
	if err != nil {
		return fmt.Errorf("notify: ses send to %s: %w", msg.To, err)
	}
	s.logger.Debug("notify: email sent", "provider", "ses", "to", msg.To, "message_id", aws.ToString(out.MessageId))
	return nil
}

func sesContent(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String("UTF-8")}
}

// Each tag becomes a flag-style SES tag. Names allow only [A-Za-z0-9_-].
func sesTags(tags []string) []types.MessageTag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]types.MessageTag, 0, len(tags))
	for _, tag := range tags {
		name := strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
				return r
			}
			return '_'
		}, tag)
		out = append(out, types.MessageTag{Name: aws.String(name), Value: aws.String("true")})
	}
	return out
}

var _ EmailSender = (*SESSender)(nil)
