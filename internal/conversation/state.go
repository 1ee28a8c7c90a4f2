package conversation

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptySessionKey is returned when a turn or store call has no session key.
var ErrEmptySessionKey = errors.New("conversation: session key is required")

// Phase is derived from the state; it is never stored.
type Phase string

const (
	PhaseCollecting      Phase = "collecting"
	PhaseReadyToFinalize Phase = "ready_to_finalize"
	PhaseCommitted       Phase = "committed"
)

// State is everything the receptionist remembers about one conversation.
// ConversationID is minted per conversation; the session key outlives it when a
// caller returns after EndSession or eviction.
type State struct {
	ConversationID string           `json:"conversation_id"`
	SessionKey     string           `json:"session_key"`
	Channel        string           `json:"channel,omitempty"`
	Messages       []ChatMessage    `json:"messages"`
	Fields         map[Field]string `json:"fields"`
	PendingSlot    Slot             `json:"pending_slot"`
	Committed      bool             `json:"committed"`
	LeadID         string           `json:"lead_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	LastActivity   time.Time        `json:"last_activity"`
}

// NewState returns an empty state for key with a fresh conversation id.
func NewState(key, channel string, now time.Time) *State {
	return &State{
		ConversationID: uuid.NewString(),
		SessionKey:     key,
		Channel:        channel,
		Fields:         make(map[Field]string, len(RequiredFields)),
		CreatedAt:      now,
		LastActivity:   now,
	}
}

// Get returns the value of f, or "" when absent.
func (s *State) Get(f Field) string {
	return s.Fields[f]
}

// Has reports whether f holds a value.
func (s *State) Has(f Field) bool {
	_, ok := s.Fields[f]
	return ok
}

// SetIfAbsent stores value for f when f is not yet known. Blank values are ignored.
// It reports whether the field changed.
func (s *State) SetIfAbsent(f Field, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" || s.Has(f) {
		return false
	}
	if s.Fields == nil {
		s.Fields = make(map[Field]string, len(RequiredFields))
	}
	s.Fields[f] = value
	return true
}

// MissingFields lists the absent fields in asking order.
func (s *State) MissingFields() []Field {
	var missing []Field
	for _, f := range RequiredFields {
		if !s.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// NextMissing returns the first absent field in asking order.
func (s *State) NextMissing() (Field, bool) {
	for _, f := range RequiredFields {
		if !s.Has(f) {
			return f, true
		}
	}
	return "", false
}

// Complete reports whether all required fields are known.
func (s *State) Complete() bool {
	_, missing := s.NextMissing()
	return !missing
}

func (s *State) Phase() Phase {
	switch {
	case s.Committed:
		return PhaseCommitted
	case s.Complete():
		return PhaseReadyToFinalize
	default:
		return PhaseCollecting
	}
}

// Append records a message and bumps the activity time.
func (s *State) Append(role, content string, now time.Time) {
	s.Messages = append(s.Messages, ChatMessage{Role: role, Content: content})
	s.LastActivity = now
}

// MarkCommitted flips the committed flag. It never reverts.
func (s *State) MarkCommitted(leadID string) {
	s.Committed = true
	if s.LeadID == "" {
		s.LeadID = leadID
	}
}

// CallerText joins everything the caller said, for urgency classification and transcripts.
func (s *State) CallerText() string {
	var parts []string
	for _, m := range s.Messages {
		if m.Role == ChatRoleUser {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n")
}

// Transcript renders the conversation as "role: text" lines.
func (s *State) Transcript() []string {
	lines := make([]string, 0, len(s.Messages))
	for _, m := range s.Messages {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return lines
}

// Clone returns a deep copy, so a turn can work on scratch state and discard it on failure.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = append([]ChatMessage(nil), s.Messages...)
	out.Fields = make(map[Field]string, len(s.Fields))
	for k, v := range s.Fields {
		out.Fields[k] = v
	}
	if s.PendingSlot.Date != nil {
		d := *s.PendingSlot.Date
		out.PendingSlot.Date = &d
	}
	if s.PendingSlot.Time != nil {
		t := *s.PendingSlot.Time
		out.PendingSlot.Time = &t
	}
	return &out
}

// Snapshot copies the known fields for API responses.
func (s *State) Snapshot() map[string]string {
	out := make(map[string]string, len(s.Fields))
	for k, v := range s.Fields {
		out[string(k)] = v
	}
	return out
}
