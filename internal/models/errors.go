package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the handlers and the core packages. Handlers map
// these onto HTTP statuses; everything else is treated as a backend failure
// and surfaced as a generic 500 with the detail kept in server logs.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	// ErrUnavailable marks an operation whose external collaborator is not
	// configured or not reachable. Handlers answer 503, not 500.
	ErrUnavailable = errors.New("unavailable")
)

// PhaseValidationError rejects a phase submission before anything is
// persisted. Field names the offending input, Reason is safe to show to the
// submitting technician.
type PhaseValidationError struct {
	Field  string
	Reason string
}

func (e *PhaseValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a field-level validation failure.
func IsValidation(err error) bool {
	var ve *PhaseValidationError
	return errors.As(err, &ve)
}
