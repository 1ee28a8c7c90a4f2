package leads

import "errors"

var (
	// ErrNotFound is returned when a lead is not found
	ErrNotFound = errors.New("lead not found")

	ErrMissingConversationID = errors.New("conversation id is required")
	ErrMissingSessionKey     = errors.New("session key is required")
	ErrInvalidName           = errors.New("name is required")
	ErrInvalidPhone          = errors.New("phone is required")
	ErrInvalidReason         = errors.New("reason is required")
	ErrInvalidTime           = errors.New("preferred time is required")
)
