package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryInput      Category = "input"
	CategoryProcessing Category = "processing"
)

// Process exit statuses.
const (
	ExitSuccess         = 0
	ExitInputError      = 1
	ExitProcessingError = 2
)

// BoosterError is a structured error with a code, a hint and a cause.
type BoosterError struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category decides the exit status.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *BoosterError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *BoosterError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *BoosterError) WithDetail(d string) *BoosterError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detail to the error.
func (e *BoosterError) WithDetailf(format string, args ...any) *BoosterError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *BoosterError) WithSuggestion(s string) *BoosterError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *BoosterError) Wrap(err error) *BoosterError {
	e.Wrapped = err
	return e
}

// New creates a BoosterError from a registered error code.
func New(code string) *BoosterError {
	template, ok := registry[code]
	if !ok {
		return &BoosterError{
			Code:     code,
			Category: CategoryProcessing,
			Message:  "Unknown error",
		}
	}
	return &BoosterError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new BoosterError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *BoosterError {
	return &BoosterError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a BoosterError. Errors that already
// carry a code are returned unchanged.
func FromError(err error, code string) *BoosterError {
	if err == nil {
		return nil
	}
	var be *BoosterError
	if errors.As(err, &be) {
		return be
	}
	return New(code).Wrap(err)
}

// IsInput reports whether err is an input error.
func IsInput(err error) bool {
	var be *BoosterError
	return errors.As(err, &be) && be.Category == CategoryInput
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if IsInput(err) {
		return ExitInputError
	}
	return ExitProcessingError
}

// As calls the standard library's errors.As.
func As(err error, target any) bool { return errors.As(err, target) }

// Is calls the standard library's errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }
