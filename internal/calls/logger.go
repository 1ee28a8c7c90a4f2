package calls

import (
	"context"
	"fmt"

	"github.com/wolfman30/selaro-receptionist/internal/leads"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

const voiceChannel = "voice"

// LeadLogger adds phone leads to the callback worklist.
type LeadLogger struct {
	repo   Repository
	logger *logging.Logger
}

func NewLeadLogger(repo Repository, logger *logging.Logger) *LeadLogger {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadLogger{repo: repo, logger: logger}
}

func (l *LeadLogger) Name() string { return "calls" }

// HandleLead only records leads from the telephony channel.
func (l *LeadLogger) HandleLead(ctx context.Context, lead *leads.Lead) error {
	if lead == nil || lead.Channel != voiceChannel {
		return nil
	}
	log, err := l.repo.Create(ctx, &CreateRequest{
		Name:          lead.Name,
		Phone:         lead.Phone,
		Service:       lead.Reason,
		PreferredTime: lead.PreferredTime,
		Urgency:       lead.Urgency,
		SessionKey:    lead.SessionKey,
		Transcript:    lead.Transcript,
	})
	if err != nil {
		return fmt.Errorf("calls: log lead %s: %w", lead.ID, err)
	}
	l.logger.Info("calls: call logged", "call_id", log.ID, "lead_id", lead.ID)
	return nil
}

var _ leads.Followup = (*LeadLogger)(nil)
