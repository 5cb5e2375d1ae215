// Package apperr is the error taxonomy returned to API clients. Every error carries the HTTP status
// and a stable machine-readable code; the wrapped cause is logged but never rendered.
package apperr

import (
	"errors"
	"net/http"
)

type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code so callers can compare against the sentinels below
// regardless of message or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// With returns a copy with a more specific message.
func (e *Error) With(message string) *Error {
	return &Error{Status: e.Status, Code: e.Code, Message: message, Err: e.Err}
}

// Wrap returns a copy carrying cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Status: e.Status, Code: e.Code, Message: e.Message, Err: cause}
}

var (
	MissingCredential = &Error{Status: http.StatusUnauthorized, Code: "MISSING_CREDENTIAL", Message: "unauthorized access"}
	InvalidCredential = &Error{Status: http.StatusForbidden, Code: "INVALID_CREDENTIAL", Message: "forbidden access"}
	Forbidden         = &Error{Status: http.StatusForbidden, Code: "FORBIDDEN", Message: "forbidden access"}
	NotFound          = &Error{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "no data available"}
	InvalidInput      = &Error{Status: http.StatusBadRequest, Code: "INVALID_INPUT", Message: "invalid input"}
	Conflict          = &Error{Status: http.StatusConflict, Code: "CONFLICT", Message: "conflict"}
	UpstreamFailure   = &Error{Status: http.StatusBadGateway, Code: "UPSTREAM_FAILURE", Message: "upstream failure, please retry"}

	AlreadySettled       = &Error{Status: http.StatusConflict, Code: "ALREADY_SETTLED", Message: "booking is already paid"}
	SettlementInProgress = &Error{Status: http.StatusConflict, Code: "SETTLEMENT_IN_PROGRESS", Message: "settlement is in progress"}
)

// From extracts an *Error from err's chain. Anything unknown is an upstream failure.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return UpstreamFailure.Wrap(err)
}
