package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/wolfman30/selaro-receptionist/internal/leads"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// Recipients lists the clinic staff that hear about new leads.
type Recipients struct {
	ClinicName string
	Emails     []string
	Phones     []string
}

// Service tells clinic staff about committed leads by email and SMS.
type Service struct {
	email      EmailSender
	sms        SMSSender
	recipients Recipients
	logger     *logging.Logger
}

// NewService creates a notification service. Either sender may be nil.
func NewService(email EmailSender, sms SMSSender, recipients Recipients, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	recipients.Emails = compact(recipients.Emails)
	recipients.Phones = compact(recipients.Phones)
	if recipients.ClinicName == "" {
		recipients.ClinicName = "Zahnarztpraxis"
	}
	return &Service{
		email:      email,
		sms:        sms,
		recipients: recipients,
		logger:     logger,
	}
}

// Enabled reports whether at least one channel can deliver.
func (s *Service) Enabled() bool {
	return (s.email != nil && len(s.recipients.Emails) > 0) || (s.sms != nil && len(s.recipients.Phones) > 0)
}

func (s *Service) Name() string { return "notify" }

// HandleLead sends the new-lead email and SMS. Every recipient is attempted even
// when an earlier one fails.
func (s *Service) HandleLead(ctx context.Context, lead *leads.Lead) error {
	if lead == nil {
		return nil
	}
	if !s.Enabled() {
		s.logger.Debug("notify: no recipients configured, skipping", "lead_id", lead.ID)
		return nil
	}

	var errs []error

	if s.email != nil {
		subject, text, htmlBody := s.leadEmail(lead)
		for _, recipient := range s.recipients.Emails {
			msg := EmailMessage{
				To:      recipient,
				Subject: subject,
				Text:    text,
				HTML:    htmlBody,
				Tags:    []string{"lead", "urgency-" + lead.Urgency},
			}
			if err := s.email.Send(ctx, msg); err != nil {
				s.logger.Error("notify: failed to send email", "error", err, "to", recipient, "lead_id", lead.ID)
				errs = append(errs, err)
			}
		}
	}

	if s.sms != nil {
		body := s.leadSMS(lead)
		for _, recipient := range s.recipients.Phones {
			if err := s.sms.SendSMS(ctx, recipient, body); err != nil {
				s.logger.Error("notify: failed to send staff SMS", "error", err, "to", recipient, "lead_id", lead.ID)
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d notification(s) failed", len(errs))
	}
	s.logger.Info("notify: staff notified", "lead_id", lead.ID, "urgency", lead.Urgency)
	return nil
}

func (s *Service) leadEmail(lead *leads.Lead) (subject, text, htmlBody string) {
	subject = fmt.Sprintf("Neue Terminanfrage: %s", lead.Name)
	if isUrgent(lead) {
		subject = "DRINGEND: " + subject
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Neue Terminanfrage über %s\n\n", channelLabel(lead.Channel))
	fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	fmt.Fprintf(&b, "Telefon: %s\n", lead.Phone)
	fmt.Fprintf(&b, "Anliegen: %s\n", lead.Reason)
	fmt.Fprintf(&b, "Wunschtermin: %s\n", lead.PreferredTime)
	if isUrgent(lead) {
		b.WriteString("Dringlichkeit: DRINGEND (Schmerzen oder Notfall)\n")
	}
	fmt.Fprintf(&b, "\nEingegangen: %s\n", lead.CreatedAt.Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "\n%s Rezeption", s.recipients.ClinicName)
	text = b.String()

	urgentRow := ""
	if isUrgent(lead) {
		urgentRow = `<tr><td><strong>Dringlichkeit</strong></td><td style="color:#b00020"><strong>DRINGEND</strong></td></tr>`
	}
	htmlBody = fmt.Sprintf(`<h2>Neue Terminanfrage</h2>
<p>Eingegangen über %s.</p>
<table>
<tr><td><strong>Name</strong></td><td>%s</td></tr>
<tr><td><strong>Telefon</strong></td><td>%s</td></tr>
<tr><td><strong>Anliegen</strong></td><td>%s</td></tr>
<tr><td><strong>Wunschtermin</strong></td><td>%s</td></tr>
%s
</table>
<p>%s Rezeption</p>`,
		channelLabel(lead.Channel),
		html.EscapeString(lead.Name),
		html.EscapeString(lead.Phone),
		html.EscapeString(lead.Reason),
		html.EscapeString(lead.PreferredTime),
		urgentRow,
		html.EscapeString(s.recipients.ClinicName),
	)
	return subject, text, htmlBody
}

func (s *Service) leadSMS(lead *leads.Lead) string {
	prefix := "Neue Anfrage"
	if isUrgent(lead) {
		prefix = "DRINGEND"
	}
	return fmt.Sprintf("%s: %s (%s), %s, Wunsch: %s", prefix, lead.Name, lead.Phone, truncate(lead.Reason, 60), lead.PreferredTime)
}

func isUrgent(lead *leads.Lead) bool {
	return lead.Urgency == leads.UrgencyUrgent
}

func channelLabel(channel string) string {
	switch channel {
	case "voice":
		return "Telefon"
	case "web":
		return "Webchat"
	default:
		return channel
	}
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var _ leads.Followup = (*Service)(nil)
