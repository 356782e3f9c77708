// Package domainerrors provides code-carrying errors for expected
// business-rule violations.
//
// Services and pure rule engines return these instead of throwing expected
// failures through generic error strings: callers branch on the code
// (HasCode), humans read the message. Infrastructure facts (missing rows,
// stale versions) are sentinel errors in pkg/platform/sentinel; services
// translate sentinels into domain errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of business-rule failure. Codes are stable and
// caller-actionable; messages are free text.
type Code string

const (
	// Ambient codes.
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeInvariantViolation Code = "invariant_violation"
	CodeValidation         Code = "validation_failed"
	CodeInternal           Code = "internal"

	// Workflow codes.
	CodeInvalidTransition       Code = "invalid_transition"
	CodeEvaluationNotReady      Code = "evaluation_not_ready"
	CodeRationaleRequired       Code = "rationale_required"
	CodeEmptyReason             Code = "empty_reason"
	CodeAlreadyClosed           Code = "already_closed"
	CodeResponseRequired        Code = "response_required"
	CodeInvalidParticipantState Code = "invalid_participant_state"
	CodeConcurrencyConflict     Code = "concurrency_conflict"
)

// Error is a domain error with a stable code and a human-readable message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err or any error in its chain carries the code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// CodeOf returns the code of the outermost domain error in the chain, or
// CodeInternal when err is not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
