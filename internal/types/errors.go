package types

import "fmt"

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. All packages use these constants instead of
// hardcoded strings so that logs can be filtered by failure family.
const (
	// Secret / configuration failures. These are fatal: the invocation
	// aborts during cold start.
	ErrCodeSecretRetrieval ErrorCode = "secret_retrieval_failed"
	ErrCodeConfigInvalid   ErrorCode = "config_invalid"

	// Upstream source failures. These degrade to an empty fetch result.
	ErrCodeSourceUnavailable ErrorCode = "source_unavailable"
	ErrCodeSourceBadResponse ErrorCode = "source_bad_response"

	// Destination (datacollector API) failures.
	ErrCodeCollectorUnavailable ErrorCode = "collector_unavailable"
	ErrCodeCollectorRejected    ErrorCode = "collector_rejected"
	ErrCodeCollectorRateLimited ErrorCode = "collector_rate_limited"

	// Everything else.
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// AppError is the standard error type carried across package boundaries.
// It pairs a stable ErrorCode with a human-readable message and an optional
// wrapped cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// NewAppError creates an AppError with the given code, message, and optional
// underlying cause.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains.
func (e *AppError) Unwrap() error {
	return e.Err
}
