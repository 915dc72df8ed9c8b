package types

import (
	"errors"
	"testing"
)

func TestAppErrorMessage(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewAppError(ErrCodeCollectorUnavailable, "watermark fetch failed", cause)

	want := "[collector_unavailable] watermark fetch failed: dial tcp: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAppErrorWithoutCause(t *testing.T) {
	err := NewAppError(ErrCodeSourceBadResponse, "result code 30", nil)
	if err.Error() != "[source_bad_response] result code 30" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewAppError(ErrCodeInternalUnexpected, "wrapper", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is must find the wrapped cause")
	}

	var appErr *AppError
	if !errors.As(error(err), &appErr) {
		t.Error("errors.As must match *AppError")
	}
}
