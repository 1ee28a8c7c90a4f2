package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/selaro-receptionist/internal/leads"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// TranscriptArchiver stores the scrubbed transcript of every committed lead.
type TranscriptArchiver struct {
	store  *Store
	logger *logging.Logger
}

func NewTranscriptArchiver(store *Store, logger *logging.Logger) *TranscriptArchiver {
	if logger == nil {
		logger = logging.Default()
	}
	return &TranscriptArchiver{store: store, logger: logger}
}

func (a *TranscriptArchiver) Name() string { return "archive" }

func (a *TranscriptArchiver) HandleLead(ctx context.Context, lead *leads.Lead) error {
	if lead == nil || !a.store.Enabled() {
		return nil
	}
	msgs := ScrubMessages(ParseTranscript(lead.Transcript))

	record := &TranscriptRecord{
		LeadID:        lead.ID,
		SessionKey:    lead.SessionKey,
		Channel:       lead.Channel,
		PhoneHash:     HashPhone(lead.Phone),
		Urgency:       lead.Urgency,
		Reason:        ScrubPII(lead.Reason),
		PreferredTime: lead.PreferredTime,
	}
	if _, err := a.store.PutTranscript(ctx, record, msgs); err != nil {
		return fmt.Errorf("archive: lead %s: %w", lead.ID, err)
	}
	return nil
}

// ParseTranscript splits "role: text" lines back into messages. Lines without a
// role prefix are attributed to the caller.
func ParseTranscript(lines []string) []Message {
	out := make([]Message, 0, len(lines))
	for _, line := range lines {
		role, content, ok := strings.Cut(line, ": ")
		if !ok || strings.ContainsAny(role, " \n") {
			role, content = "user", line
		}
		out = append(out, Message{Role: role, Content: content})
	}
	return out
}

var _ leads.Followup = (*TranscriptArchiver)(nil)
