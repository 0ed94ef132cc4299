package core

import (
	"errors"
	"fmt"
)

// Error represents a session or capture error surfaced to the UI layer.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    string    `json:"code,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	// ErrPermissionDenied means camera or microphone access was refused.
	// Recoverable: the user can grant access and retry.
	ErrPermissionDenied ErrorType = "permission_denied"
	// ErrDeviceUnavailable means no usable camera or microphone exists.
	ErrDeviceUnavailable ErrorType = "device_unavailable"
	// ErrConnection means the remote channel failed to open or dropped.
	// Fatal to the current session.
	ErrConnection ErrorType = "connection_error"
	// ErrMalformedResponse means an inbound payload was unexpected or
	// incomplete. Logged and skipped, never fatal.
	ErrMalformedResponse ErrorType = "malformed_response"
	// ErrUnknown is the catch-all, treated as fatal.
	ErrUnknown ErrorType = "unknown"
)

// NewPermissionDeniedError creates a permission denied error.
func NewPermissionDeniedError(message string) *Error {
	return &Error{
		Type:    ErrPermissionDenied,
		Message: message,
	}
}

// NewDeviceUnavailableError creates a device unavailable error.
func NewDeviceUnavailableError(message string) *Error {
	return &Error{
		Type:    ErrDeviceUnavailable,
		Message: message,
	}
}

// NewConnectionError creates a connection error wrapping the transport cause.
func NewConnectionError(message string, cause error) *Error {
	return &Error{
		Type:    ErrConnection,
		Message: message,
		Cause:   cause,
	}
}

// NewMalformedResponseError creates a malformed response error.
func NewMalformedResponseError(message string) *Error {
	return &Error{
		Type:    ErrMalformedResponse,
		Message: message,
	}
}

// NewUnknownError wraps an unclassified error.
func NewUnknownError(cause error) *Error {
	msg := "an unknown error occurred"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Type:    ErrUnknown,
		Message: msg,
		Cause:   cause,
	}
}

// IsRecoverable reports whether the user can fix the condition and retry
// without restarting the process. Connection and unknown errors end the
// current session instead.
func (e *Error) IsRecoverable() bool {
	switch e.Type {
	case ErrPermissionDenied, ErrDeviceUnavailable, ErrMalformedResponse:
		return true
	default:
		return false
	}
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// TypeOf returns the ErrorType of err, or ErrUnknown when err is not an
// *Error from this package.
func TypeOf(err error) ErrorType {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ErrUnknown
}
