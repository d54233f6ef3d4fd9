// Package domainerrors defines code-carrying errors shared by services and the
// HTTP layer. Services classify failures with a Code; transport maps codes to
// statuses without inspecting error strings.
package domainerrors

import "errors"

// Code classifies a domain failure.
type Code string

const (
	// CodeValidation marks a field value whose shape does not match its
	// declared type tag. Rejected before any storage mutation.
	CodeValidation Code = "validation"
	// CodeForbidden marks a failed authorization check. Raised strictly
	// before any destructive storage call.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks a missing record/id at lookup time.
	CodeNotFound Code = "not_found"
	// CodeConflict marks a no-op suggestion or duplicate pending request.
	CodeConflict Code = "conflict"
	// CodeStorage marks an underlying persistence failure. Logged with
	// context, surfaced to callers as a generic message.
	CodeStorage Code = "storage"
	// CodeBadRequest marks malformed input at the transport boundary.
	CodeBadRequest Code = "bad_request"
	// CodeInternal marks everything else.
	CodeInternal Code = "internal"
)

// Error is a domain error with a stable code and a human-readable message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New builds a domain error from a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a cause to a domain error so infrastructure detail stays
// available to logs while the message stays user-safe.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
