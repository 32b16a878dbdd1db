// Package apperrors defines the typed errors carried across service
// boundaries. Every distinct failure condition maps to a stable code string so
// API consumers can branch on it without parsing prose.
package apperrors

import (
	"errors"
	"net/http"
	"strings"
)

// Stable error codes exposed on the wire.
const (
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeDriveNotFound         = "DRIVE_NOT_FOUND"
	CodeStudentNotFound       = "STUDENT_NOT_FOUND"
	CodeCompanyNotFound       = "COMPANY_NOT_FOUND"
	CodeCompanyNotApproved    = "COMPANY_NOT_APPROVED"
	CodeDriveNotOpen          = "DRIVE_NOT_OPEN"
	CodeDeadlinePassed        = "DEADLINE_PASSED"
	CodeAlreadyRegistered     = "ALREADY_REGISTERED"
	CodeNotRegistered         = "NOT_REGISTERED"
	CodeDriveStarted          = "DRIVE_STARTED"
	CodeNotEligible           = "NOT_ELIGIBLE"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeResultsNotOpen        = "RESULTS_NOT_OPEN"
	CodeStudentNotInRoster    = "STUDENT_NOT_IN_ROSTER"
	CodeInvalidResultStatus   = "INVALID_RESULT_STATUS"
	CodeScoreOutOfRange       = "SCORE_OUT_OF_RANGE"
	CodeInvalidCTC            = "INVALID_CTC"
	CodeResultNotFound        = "RESULT_NOT_FOUND"
	CodeEventNotFound         = "EVENT_NOT_FOUND"
	CodeResultConflict        = "RESULT_CONFLICT"
	CodeDriveHasRegistrations = "DRIVE_HAS_REGISTRATIONS"
	CodeDriveNotDeletable     = "DRIVE_NOT_DELETABLE"
	CodeInvalidSchedule       = "INVALID_SCHEDULE"
	CodeDuplicateStudent      = "DUPLICATE_STUDENT"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeRateLimited           = "RATE_LIMITED"
	CodeInternal              = "INTERNAL"
)

// Error is a service-level error with a stable code and HTTP status. Reasons
// carries the aggregated explanation for eligibility failures.
type Error struct {
	Code    string
	Status  int
	Message string
	Reasons []string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Reasons) > 0 {
		return e.Message + ": " + strings.Join(e.Reasons, "; ")
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Validation builds a 400 error for malformed input.
func Validation(message string) *Error {
	return &Error{Code: CodeValidationFailed, Status: http.StatusBadRequest, Message: message}
}

// NotFound builds a 404 error with the given code.
func NotFound(code, message string) *Error {
	return &Error{Code: code, Status: http.StatusNotFound, Message: message}
}

// Conflict builds a 409 error with the given code.
func Conflict(code, message string) *Error {
	return &Error{Code: code, Status: http.StatusConflict, Message: message}
}

// State builds a 400 error for an operation illegal in the current lifecycle
// state.
func State(code, message string) *Error {
	return &Error{Code: code, Status: http.StatusBadRequest, Message: message}
}

// BadRequest builds a 400 error with the given code.
func BadRequest(code, message string) *Error {
	return &Error{Code: code, Status: http.StatusBadRequest, Message: message}
}

// Eligibility builds a 400 error aggregating every unmet criterion. The full
// reason list is always surfaced at once, never the first failure only.
func Eligibility(reasons []string) *Error {
	return &Error{
		Code:    CodeNotEligible,
		Status:  http.StatusBadRequest,
		Message: "student does not meet eligibility criteria",
		Reasons: reasons,
	}
}

// Internal wraps an unexpected failure without leaking detail to the client.
func Internal(cause error) *Error {
	return &Error{Code: CodeInternal, Status: http.StatusInternalServerError, Message: "internal server error", cause: cause}
}

// As extracts a typed Error from an error chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
