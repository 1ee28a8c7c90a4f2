package archive

import "time"

const recordVersion = "1.0"

// TranscriptRecord is the header line of an archived transcript. It is followed
// by one Message line per turn.
type TranscriptRecord struct {
	Version       string    `json:"version"`
	LeadID        string    `json:"lead_id"`
	SessionKey    string    `json:"session_key"`
	Channel       string    `json:"channel"`
	PhoneHash     string    `json:"phone_hash"` // sha256 of phone
	Urgency       string    `json:"urgency"`
	Reason        string    `json:"reason"`
	PreferredTime string    `json:"preferred_time"`
	ArchivedAt    time.Time `json:"archived_at"`
	MessageCount  int       `json:"message_count"`
}

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ManifestEntry is one JSONL line in the monthly manifest file.
type ManifestEntry struct {
	LeadID       string `json:"lead_id"`
	S3Key        string `json:"s3_key"`
	Channel      string `json:"channel"`
	Urgency      string `json:"urgency"`
	ArchivedAt   string `json:"archived_at"`
	MessageCount int    `json:"message_count"`
}
