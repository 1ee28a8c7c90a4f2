package appointments

import "errors"

var (
	// ErrNotFound is returned when an appointment does not exist.
	ErrNotFound = errors.New("appointment not found")

	ErrInvalidStatus = errors.New("status must be Pending, Confirmed or Cancelled")
	ErrMissingName   = errors.New("patient name is required")
	ErrMissingPhone  = errors.New("phone is required")
	ErrInvalidDate   = errors.New("date must be YYYY-MM-DD")
	ErrInvalidTime   = errors.New("time must be HH:MM")
)

// IsValidation reports whether err was caused by bad input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrMissingName) ||
		errors.Is(err, ErrMissingPhone) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidTime)
}
