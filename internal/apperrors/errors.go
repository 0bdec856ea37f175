// Package apperrors defines the typed domain errors surfaced to API callers.
// Storage-layer failures are translated into these at the service boundary;
// raw database errors never cross into HTTP responses.
package apperrors

import (
	"errors"
	"net/http"
)

// Error is a user-facing domain error with a stable machine code.
type Error struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Expected domain conditions and system conditions.
var (
	ErrInsufficientCredits = &Error{
		Code:    "INSUFFICIENT_CREDITS",
		Message: "not enough credits, purchase more or earn by judging",
		Status:  http.StatusPaymentRequired,
	}
	ErrUnknownTier = &Error{
		Code:    "UNKNOWN_TIER",
		Message: "unknown request tier",
		Status:  http.StatusBadRequest,
	}
	ErrCannotJudgeOwnRequest = &Error{
		Code:    "CANNOT_JUDGE_OWN_REQUEST",
		Message: "you cannot judge your own request",
		Status:  http.StatusConflict,
	}
	ErrAlreadyJudged = &Error{
		Code:    "ALREADY_JUDGED",
		Message: "you've already responded to this request",
		Status:  http.StatusConflict,
	}
	ErrRequestFilled = &Error{
		Code:    "REQUEST_ALREADY_FILLED",
		Message: "this request just reached its verdict limit",
		Status:  http.StatusConflict,
	}
	ErrRequestClosed = &Error{
		Code:    "REQUEST_CLOSED",
		Message: "this request is no longer accepting verdicts",
		Status:  http.StatusConflict,
	}
	ErrRequestNotFound = &Error{
		Code:    "REQUEST_NOT_FOUND",
		Message: "request not found",
		Status:  http.StatusNotFound,
	}
	ErrProfileNotFound = &Error{
		Code:    "PROFILE_NOT_FOUND",
		Message: "profile not found, please re-authenticate",
		Status:  http.StatusUnauthorized,
	}
	ErrNotRequestOwner = &Error{
		Code:    "NOT_REQUEST_OWNER",
		Message: "only the request owner may do that",
		Status:  http.StatusForbidden,
	}
	ErrEarningExists = &Error{
		Code:    "EARNING_EXISTS",
		Message: "earning already recorded for this verdict",
		Status:  http.StatusConflict,
	}
	ErrStoreUnavailable = &Error{
		Code:    "STORE_UNAVAILABLE",
		Message: "system temporarily unavailable, please retry",
		Status:  http.StatusServiceUnavailable,
	}
)

// As unwraps err into a domain *Error, or nil if it is not one.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// HTTPStatus returns the HTTP status for err, defaulting to 500 for anything
// that is not a domain error.
func HTTPStatus(err error) int {
	if appErr := As(err); appErr != nil {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
