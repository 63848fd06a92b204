package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined ambient errors.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Attendance engine errors. All surface as request rejections, never as
// process failures.
var (
	ErrAlreadyCheckedIn         = New("ALREADY_CHECKED_IN", http.StatusBadRequest, "check-in already recorded for today")
	ErrAlreadyCheckedOut        = New("ALREADY_CHECKED_OUT", http.StatusBadRequest, "check-out already recorded for today")
	ErrNoCheckInFound           = New("NO_CHECK_IN_FOUND", http.StatusBadRequest, "no check-in found for today")
	ErrNoShiftAssigned          = New("NO_SHIFT_ASSIGNED", http.StatusBadRequest, "no shift assigned")
	ErrOnApprovedLeave          = New("ON_APPROVED_LEAVE", http.StatusBadRequest, "an approved leave covers this date")
	ErrOnDayOff                 = New("ON_DAY_OFF", http.StatusBadRequest, "this date is a rest day")
	ErrWeekendNotWorking        = New("WEEKEND_NOT_WORKING", http.StatusBadRequest, "not scheduled to work on weekends")
	ErrPendingRequestOverlap    = New("PENDING_REQUEST_OVERLAP", http.StatusConflict, "a pending request already covers this period")
	ErrInsufficientLeaveBalance = New("INSUFFICIENT_LEAVE_BALANCE", http.StatusBadRequest, "insufficient leave balance")
	ErrAlreadyProcessed         = New("ALREADY_PROCESSED", http.StatusBadRequest, "request has already been processed")
	ErrDayOffWeekConflict       = New("DAY_OFF_WEEK_CONFLICT", http.StatusConflict, "a day off already exists for this week")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
