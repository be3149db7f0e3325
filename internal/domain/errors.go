package domain

import "fmt"

const (
	MessageSizeNotNumeric = "The size must be numerical value"
	MessageInvalidFormat  = "Invalid format"
	MessageFormatMismatch = "The original file format must be jpeg or png."
)

// ValidationError is a client mistake in the query or extension. Message is shown to the viewer.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError covers bad bucket names, malformed paths and failed fetches.
type NotFoundError struct {
	Reason string
	Cause  error
}

func (e *NotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("not found: %s: %v", e.Reason, e.Cause)
	}
	return "not found: " + e.Reason
}

func (e *NotFoundError) Unwrap() error {
	return e.Cause
}

// FormatMismatchError means the stored bytes are not jpeg or png even though the extension was.
type FormatMismatchError struct {
	Format string
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("source format %q is not jpeg or png", e.Format)
}

func NotFound(reason string, cause error) error {
	return &NotFoundError{Reason: reason, Cause: cause}
}
