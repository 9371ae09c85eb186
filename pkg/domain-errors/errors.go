// Package errors provides coded domain errors shared by services and
// transports. Services attach a Code when translating store or infrastructure
// failures; handlers map the Code to an HTTP status without inspecting error
// strings.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for transport mapping and caller handling.
type Code string

const (
	// CodeValidation marks malformed or out-of-range input: empty strings,
	// non-positive numeric fields, future timestamps, self/zero transfer
	// targets, unavailable products, insufficient payment.
	CodeValidation Code = "validation"

	// CodeInvalidInput marks input that failed parsing at a trust boundary
	// before reaching domain validation (bad path param, bad JSON field).
	CodeInvalidInput Code = "invalid_input"

	// CodeBadRequest marks a structurally broken request (unreadable body).
	CodeBadRequest Code = "bad_request"

	// CodeUnauthorized marks a request with no resolvable principal.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden marks a caller that lacks ownership or a required role.
	CodeForbidden Code = "forbidden"

	// CodeNotFound marks a reference to a product outside [1, counter].
	CodeNotFound Code = "not_found"

	// CodeConflict marks an operation that lost to an existing fact
	// (farmer already verified).
	CodeConflict Code = "conflict"

	// CodeTransferFailed marks a value movement the payment primitive
	// rejected; the associated custody change was rolled back.
	CodeTransferFailed Code = "transfer_failed"

	// CodeInvariantViolation marks a domain invariant breach detected by a
	// model constructor or mutation helper.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a domain error carrying a classification code. The message is
// surfaced verbatim to the caller per the error-handling contract.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error with a human-readable reason.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted reason.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. The cause stays
// reachable through errors.Is/As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var domainErr *Error
	for errors.As(err, &domainErr) {
		if domainErr.Code == code {
			return true
		}
		err = domainErr.cause
		if err == nil {
			return false
		}
		domainErr = nil
	}
	return false
}

// Is is a readability alias for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in the chain, or CodeInternal when the
// error carries no code.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}
