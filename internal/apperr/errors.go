// Package apperr defines the tagged error taxonomy the core uses to cross
// the tool-dispatch boundary without leaking adapter-specific error types.
package apperr

import "fmt"

// Kind classifies a failure so callers outside the core can react without
// inspecting wrapped driver or transport errors.
type Kind string

const (
	InvalidInput          Kind = "invalid_input"
	UnavailableDependency Kind = "unavailable_dependency"
	Timeout               Kind = "timeout"
	NotFound              Kind = "not_found"
	PermissionDenied      Kind = "permission_denied"
	Internal              Kind = "internal"
)

// Error is the core's error type. It always carries a Kind so a caller can
// map it to a stable envelope without string matching on Message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err, defaulting to Internal for anything
// that isn't an *Error — an unclassified error escaping an adapter boundary
// is itself a bug, but it must never crash the caller.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return Internal
}
