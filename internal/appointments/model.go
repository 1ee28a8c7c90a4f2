package appointments

import (
	"strings"
	"time"
)

const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"

	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment is a slot on the clinic calendar, created by staff or from a lead.
type Appointment struct {
	ID          string    `json:"id"`
	PatientName string    `json:"patient_name"`
	Phone       string    `json:"phone"`
	Reason      string    `json:"reason"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Status      string    `json:"status"`
	Urgency     string    `json:"urgency"`
	SessionKey  string    `json:"session_key,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRequest carries a new appointment. New appointments always start Pending.
type CreateRequest struct {
	PatientName string `json:"patient_name"`
	Phone       string `json:"phone"`
	Reason      string `json:"reason"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Urgency     string `json:"urgency"`
	SessionKey  string `json:"session_key,omitempty"`
}

// Validate trims the request and checks the date and time layouts.
func (r *CreateRequest) Validate() error {
	r.PatientName = strings.TrimSpace(r.PatientName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Reason = strings.TrimSpace(r.Reason)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)

	switch {
	case r.PatientName == "":
		return ErrMissingName
	case r.Phone == "":
		return ErrMissingPhone
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return ErrInvalidDate
	}
	if _, err := time.Parse(TimeLayout, r.Time); err != nil {
		return ErrInvalidTime
	}
	if r.Urgency != "urgent" {
		r.Urgency = "normal"
	}
	return nil
}

// ParseStatus accepts a status in any letter case.
func ParseStatus(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "confirmed":
		return StatusConfirmed, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	}
	return "", ErrInvalidStatus
}
