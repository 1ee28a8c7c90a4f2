package leads

import (
	"strings"
	"time"
)

const (
	UrgencyUrgent = "urgent"
	UrgencyNormal = "normal"
)

// Lead is a completed appointment request collected by the receptionist.
type Lead struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SessionKey     string    `json:"session_key"`
	Channel        string    `json:"channel"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Reason         string    `json:"reason"`
	PreferredTime  string    `json:"preferred_time"`
	Urgency        string    `json:"urgency"`
	Transcript     []string  `json:"transcript,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateLeadRequest carries the collected fields into the repository. Saves are
// idempotent on ConversationID; a session key is reused after its session ends.
type CreateLeadRequest struct {
	ConversationID string   `json:"conversation_id"`
	SessionKey     string   `json:"session_key"`
	Channel        string   `json:"channel"`
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	Reason         string   `json:"reason"`
	PreferredTime  string   `json:"preferred_time"`
	Urgency        string   `json:"urgency"`
	Transcript     []string `json:"transcript,omitempty"`
}

// Validate checks that all four lead fields and both keys are present.
func (r *CreateLeadRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.ConversationID) == "":
		return ErrMissingConversationID
	case strings.TrimSpace(r.SessionKey) == "":
		return ErrMissingSessionKey
	case strings.TrimSpace(r.Name) == "":
		return ErrInvalidName
	case strings.TrimSpace(r.Phone) == "":
		return ErrInvalidPhone
	case strings.TrimSpace(r.Reason) == "":
		return ErrInvalidReason
	case strings.TrimSpace(r.PreferredTime) == "":
		return ErrInvalidTime
	}
	if r.Urgency != UrgencyUrgent {
		r.Urgency = UrgencyNormal
	}
	return nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Urgency string
	Limit   int
	Offset  int
}

func (f ListFilter) normalized() ListFilter {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
