// Package errors provides error types and handling for propel.
// It defines the error taxonomy shared by the pipeline, the doctor
// engine, and the gcloud client.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a propel error with a machine-readable kind.
type Error struct {
	// Kind is the error kind string for programmatic handling
	Kind string
	// Message is a user-friendly error message
	Message string
	// Cause is the underlying error (for error wrapping)
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is to match on error kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind != "" && e.Kind == t.Kind
	}
	return false
}

// Predefined error kinds.
const (
	// Local error kinds. These never correspond to a remote call.
	KindLocalValidation = "LOCAL_VALIDATION"
	KindLocalIO         = "LOCAL_IO"
	KindConfigNotFound  = "CONFIG_NOT_FOUND"
	KindConfigInvalid   = "CONFIG_INVALID"
	KindManifestInvalid = "MANIFEST_INVALID"
	KindLaunchFailed    = "LAUNCH_FAILED"

	// Remote error kinds, classified from gcloud output.
	KindRemoteAuth       = "REMOTE_AUTH"
	KindRemoteNotFound   = "REMOTE_NOT_FOUND"
	KindRemotePermission = "REMOTE_PERMISSION"
	KindRemoteQuota      = "REMOTE_QUOTA"
	KindRemoteUnknown    = "REMOTE_UNKNOWN"

	// Wait/poll error kinds.
	KindTimeout   = "TIMEOUT"
	KindCancelled = "CANCELLED"
)

// New creates an error with the given kind and message.
func New(kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Convenience constructors for common errors

// ErrLocalValidation creates a local validation error.
// Local validation failures abort before any remote operation runs.
func ErrLocalValidation(message string, cause error) *Error {
	return New(KindLocalValidation, message, cause)
}

// ErrLocalIO creates a local I/O error (bundle enumeration, file reads).
func ErrLocalIO(message string, cause error) *Error {
	return New(KindLocalIO, message, cause)
}

// ErrConfigNotFound creates an error for a missing propel.toml.
func ErrConfigNotFound(message string, cause error) *Error {
	return New(KindConfigNotFound, message, cause)
}

// ErrConfigInvalid creates an error for a malformed propel.toml.
func ErrConfigInvalid(message string, cause error) *Error {
	return New(KindConfigInvalid, message, cause)
}

// ErrManifestInvalid creates an error for a missing or incomplete Cargo.toml.
func ErrManifestInvalid(message string, cause error) *Error {
	return New(KindManifestInvalid, message, cause)
}

// ErrLaunchFailed creates an error for a command that could not be started
// (binary missing, permission denied).
func ErrLaunchFailed(message string, cause error) *Error {
	return New(KindLaunchFailed, message, cause)
}

// ErrRemoteAuth creates an authentication error.
func ErrRemoteAuth(message string, cause error) *Error {
	return New(KindRemoteAuth, message, cause)
}

// ErrRemoteNotFound creates a remote not-found error.
func ErrRemoteNotFound(message string, cause error) *Error {
	return New(KindRemoteNotFound, message, cause)
}

// ErrRemotePermission creates a remote permission error.
func ErrRemotePermission(message string, cause error) *Error {
	return New(KindRemotePermission, message, cause)
}

// ErrRemoteQuota creates a remote quota error.
func ErrRemoteQuota(message string, cause error) *Error {
	return New(KindRemoteQuota, message, cause)
}

// ErrRemoteUnknown creates an opaque remote error. The remote detail
// string is preserved verbatim in the message.
func ErrRemoteUnknown(message string, cause error) *Error {
	return New(KindRemoteUnknown, message, cause)
}

// ErrTimeout creates a poll-deadline-exceeded error.
func ErrTimeout(message string, cause error) *Error {
	return New(KindTimeout, message, cause)
}

// ErrCancelled creates a cancellation error.
func ErrCancelled(message string, cause error) *Error {
	return New(KindCancelled, message, cause)
}

// GetKind extracts the error kind from an error.
// Returns empty string if the error is not a propel *Error.
func GetKind(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind string) bool {
	return GetKind(err) == kind
}

// IsRemote reports whether err was classified from a remote operation.
func IsRemote(err error) bool {
	switch GetKind(err) {
	case KindRemoteAuth, KindRemoteNotFound, KindRemotePermission, KindRemoteQuota, KindRemoteUnknown:
		return true
	}
	return false
}

// GetMessage extracts a user-friendly message from an error.
func GetMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// GetDetails extracts detailed error information including the underlying cause.
// Returns the underlying error message if available, otherwise returns the main
// error message.
func GetDetails(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return e.Message
	}
	return err.Error()
}
