package model

import (
	"errors"
	"fmt"
)

// Shared error taxonomy for the pipeline and the social layer. Handlers map
// these to HTTP status codes at the boundary.
var (
	// ErrNotFound is returned when a referenced entity is absent or not
	// visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrPermission is returned when the entity exists but the caller lacks
	// rights to it.
	ErrPermission = errors.New("permission denied")

	// ErrInsufficientCredits is returned when a credit reservation fails.
	// Nothing was decremented, so no refund is owed.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrDispatchFailed is returned when the job was reserved and persisted
	// but the execution substrate rejected the submission. The credit has
	// already been refunded by the time callers see this.
	ErrDispatchFailed = errors.New("job dispatch failed")
)

// ValidationError reports malformed or incomplete creative input. No partial
// state is created when one of these is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
