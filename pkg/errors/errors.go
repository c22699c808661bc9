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

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Scheduling violations. The conflict class reports an occupied slot, the
// policy class reports a rule the candidate tuple breaks. Codes are stable so
// callers can branch on kind.
var (
	ErrScheduleConflictTeacher = New("SCHEDULE_CONFLICT_TEACHER", http.StatusConflict, "teacher already has a lesson at this time slot")
	ErrScheduleConflictClass   = New("SCHEDULE_CONFLICT_CLASS", http.StatusConflict, "class already has a lesson at this time slot")
	ErrScheduleConflictRoom    = New("SCHEDULE_CONFLICT_ROOM", http.StatusConflict, "room already booked at this time slot")
	ErrTeacherNotQualified     = New("TEACHER_NOT_QUALIFIED", http.StatusUnprocessableEntity, "teacher is not qualified for this subject")
	ErrRoomNotSuitable         = New("ROOM_NOT_SUITABLE", http.StatusUnprocessableEntity, "room is not suitable for this subject")
	ErrTeacherNotAvailable     = New("TEACHER_NOT_AVAILABLE", http.StatusUnprocessableEntity, "teacher is not available at this time slot")
	ErrLessonNotFound          = New("LESSON_NOT_FOUND", http.StatusNotFound, "lesson not found")
	ErrInvalidStatusTransition = New("INVALID_STATUS_TRANSITION", http.StatusConflict, "lesson status does not allow this operation")
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
