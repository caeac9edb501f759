package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Failure taxonomy for one extraction call. Classification decides retry
// behavior: transient faults back off and retry, validation faults retry once
// with a reinforced prompt, everything else is terminal for the item.
var (
	// ErrEmptyText: the document produced no usable text. Terminal for the
	// item; recorded as an error row, never retried.
	ErrEmptyText = errors.New("document text empty or unreadable")

	// ErrProviderTransient: the provider signaled throttling or a server
	// fault (429 / 5xx). Retried with linear backoff.
	ErrProviderTransient = errors.New("provider throttled or unavailable")

	// ErrSchemaValidation: the model response did not match the profile
	// schema. Retried with a strict field-enumerating prompt.
	ErrSchemaValidation = errors.New("response failed schema validation")

	// ErrProviderFatal: bad credentials or unsupported provider config.
	// Surfaces at client construction and aborts the whole run.
	ErrProviderFatal = errors.New("provider configuration invalid")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
