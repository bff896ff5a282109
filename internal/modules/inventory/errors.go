package inventory

import (
	"errors"
	"fmt"
)

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError reports structurally invalid input or a violated
// business invariant, optionally with field-level detail.
type ValidationError struct {
	Message string
	Details map[string]any
}

func (e *ValidationError) Error() string { return e.Message }

// NotANumberError reports money input that cannot be parsed as a
// number. It is a specialization of validation failure.
type NotANumberError struct {
	Input string
}

func (e *NotANumberError) Error() string {
	return fmt.Sprintf("not a number: %q", e.Input)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is a ValidationError or a
// NotANumberError.
func IsValidation(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	var nan *NotANumberError
	return errors.As(err, &nan)
}

func notFound(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func invalidField(message, field string) *ValidationError {
	return &ValidationError{Message: message, Details: map[string]any{"field": field}}
}
