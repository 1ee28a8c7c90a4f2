package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/selaro-receptionist/internal/leads"
)

type recordingEmail struct {
	sent []EmailMessage
	err  error
}

func (r *recordingEmail) Send(_ context.Context, msg EmailMessage) error {
	r.sent = append(r.sent, msg)
	return r.err
}

type recordingSMS struct {
	to   []string
	body []string
	err  error
}

func (r *recordingSMS) SendSMS(_ context.Context, to, body string) error {
	r.to = append(r.to, to)
	r.body = append(r.body, body)
	return r.err
}

func sampleLead(urgency string) *leads.Lead {
	return &leads.Lead{
		ID:            "lead-1",
		SessionKey:    "web:abc",
		Channel:       "web",
		Name:          "Anna <Müller>",
		Phone:         "0341123456",
		Reason:        "Zahnschmerzen",
		PreferredTime: "2025-06-11 10:00",
		Urgency:       urgency,
		CreatedAt:     time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC),
	}
}

func TestServiceHandleLead(t *testing.T) {
	email := &recordingEmail{}
	sms := &recordingSMS{}
	svc := NewService(email, sms, Recipients{
		ClinicName: "Praxis Dr. Weber",
		Emails:     []string{"team@example.de", " "},
		Phones:     []string{"+49341000111"},
	}, nil)

	require.NoError(t, svc.HandleLead(context.Background(), sampleLead(leads.UrgencyUrgent)))

	require.Len(t, email.sent, 1)
	msg := email.sent[0]
	assert.Equal(t, "team@example.de", msg.To)
	assert.Equal(t, "DRINGEND: Neue Terminanfrage: Anna <Müller>", msg.Subject)
	assert.Contains(t, msg.Text, "Telefon: 0341123456")
	assert.Contains(t, msg.Text, "Wunschtermin: 2025-06-11 10:00")
	assert.Contains(t, msg.Text, "Webchat")
	assert.Contains(t, msg.HTML, "Anna &lt;Müller&gt;")
	assert.Contains(t, msg.HTML, "DRINGEND")
	assert.Equal(t, []string{"lead", "urgency-urgent"}, msg.Tags)

	require.Equal(t, []string{"+49341000111"}, sms.to)
	assert.True(t, strings.HasPrefix(sms.body[0], "DRINGEND: Anna <Müller> (0341123456)"))
}

func TestServiceHandleLeadNormalUrgency(t *testing.T) {
	email := &recordingEmail{}
	sms := &recordingSMS{}
	svc := NewService(email, sms, Recipients{Emails: []string{"team@example.de"}, Phones: []string{"+49341000111"}}, nil)

	lead := sampleLead(leads.UrgencyNormal)
	lead.Channel = "voice"
	require.NoError(t, svc.HandleLead(context.Background(), lead))

	assert.Equal(t, "Neue Terminanfrage: Anna <Müller>", email.sent[0].Subject)
	assert.Contains(t, email.sent[0].Text, "Telefon\n")
	assert.NotContains(t, email.sent[0].HTML, "DRINGEND")
	assert.True(t, strings.HasPrefix(sms.body[0], "Neue Anfrage:"))
}

func TestServiceHandleLeadAggregatesFailures(t *testing.T) {
	email := &recordingEmail{err: errors.New("smtp down")}
	sms := &recordingSMS{err: errors.New("twilio down")}
	svc := NewService(email, sms, Recipients{
		Emails: []string{"a@example.de", "b@example.de"},
		Phones: []string{"+49341000111"},
	}, nil)

	err := svc.HandleLead(context.Background(), sampleLead(leads.UrgencyNormal))
	assert.EqualError(t, err, "notify: 3 notification(s) failed")
	assert.Len(t, email.sent, 2, "every recipient is attempted")
	assert.Len(t, sms.to, 1)
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(nil, nil, Recipients{Emails: []string{"team@example.de"}}, nil)
	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.HandleLead(context.Background(), sampleLead(leads.UrgencyNormal)))

	sms := &recordingSMS{}
	svc = NewService(nil, sms, Recipients{}, nil)
	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.HandleLead(context.Background(), sampleLead(leads.UrgencyNormal)))
	assert.Empty(t, sms.to)

	assert.Equal(t, "notify", svc.Name())
	assert.NoError(t, svc.HandleLead(context.Background(), nil))
}

func TestStubSMSSender(t *testing.T) {
	assert.NoError(t, NewStubSMSSender(nil).SendSMS(context.Background(), "+49341000111", "Hallo"))
}
