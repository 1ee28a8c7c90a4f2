package calls

import (
	"errors"
	"strings"
	"time"
)

const (
	StatusNew    = "New"
	StatusCalled = "Called"
	StatusBooked = "Booked"
)

var (
	ErrNotFound      = errors.New("call log not found")
	ErrInvalidStatus = errors.New("status must be New, Called or Booked")
	ErrMissingName   = errors.New("name is required")
	ErrMissingPhone  = errors.New("phone is required")
)

// CallLog is the callback worklist entry for one phone inquiry.
type CallLog struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Service       string    `json:"service"`
	PreferredTime string    `json:"preferred_time"`
	Urgency       string    `json:"urgency"`
	Status        string    `json:"status"`
	SessionKey    string    `json:"session_key,omitempty"`
	Transcript    []string  `json:"transcript,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateRequest is the body of POST /api/calls/log.
type CreateRequest struct {
	Name          string   `json:"name"`
	Phone         string   `json:"phone"`
	Service       string   `json:"service"`
	PreferredTime string   `json:"preferred_time"`
	Urgency       string   `json:"urgency"`
	SessionKey    string   `json:"session_key,omitempty"`
	Transcript    []string `json:"transcript,omitempty"`
}

func (r *CreateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	switch {
	case r.Name == "":
		return ErrMissingName
	case r.Phone == "":
		return ErrMissingPhone
	}
	if r.Urgency != "urgent" {
		r.Urgency = "normal"
	}
	if r.Transcript == nil {
		r.Transcript = []string{}
	}
	return nil
}

func ParseStatus(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new":
		return StatusNew, nil
	case "called":
		return StatusCalled, nil
	case "booked":
		return StatusBooked, nil
	}
	return "", ErrInvalidStatus
}
