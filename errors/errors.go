package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies application errors
type ErrorCode string

const (
	// Transient automation failures: retried a bounded number of times, then escalated
	ErrorCode_AUTOMATION_TRANSIENT ErrorCode = "AUTOMATION_TRANSIENT"
	// Critical automation failures: abort the attempt, no retry
	ErrorCode_AUTOMATION_CRITICAL ErrorCode = "AUTOMATION_CRITICAL"
	// Resource failures: recorder launch, unreachable agent mid-session
	ErrorCode_RESOURCE ErrorCode = "RESOURCE"
	// Compare-and-set on the joined flag lost the race: not an error to the caller
	ErrorCode_STORE_CONFLICT ErrorCode = "STORE_CONFLICT"

	ErrorCode_INVALID_ARGUMENT ErrorCode = "INVALID_ARGUMENT"
	ErrorCode_NOT_FOUND        ErrorCode = "NOT_FOUND"
	ErrorCode_ALREADY_EXISTS   ErrorCode = "ALREADY_EXISTS"
	ErrorCode_INTERNAL         ErrorCode = "INTERNAL"
)

// String returns the string representation of the error code
func (c ErrorCode) String() string {
	return string(c)
}

// AppError là custom error type cho application
type AppError struct {
	Raw      error
	HTTPCode int
	Code     ErrorCode
	Message  string
	Details  map[string]string
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the wrapped raw error to errors.Is/As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors

func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

// Session Driver Errors

// ErrPageLoad indicates the session page could not be loaded after all retries.
func ErrPageLoad(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_AUTOMATION_TRANSIENT,
		Message:  "page load",
	}
}

// ErrNameFieldTimeout indicates the display-name input never appeared.
func ErrNameFieldTimeout(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_AUTOMATION_TRANSIENT,
		Message:  "name field timeout",
	}
}

// ErrJoinControlMissing indicates neither join control label was found.
func ErrJoinControlMissing() AppError {
	return AppError{
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_AUTOMATION_CRITICAL,
		Message:  "join control missing",
	}
}

// ErrAutomationFailed wraps an unrecoverable automation exception at any step.
func ErrAutomationFailed(step string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_AUTOMATION_CRITICAL,
		Message:  step,
	}
}

// Capture Errors

// ErrRecorderStart indicates the audio recording process failed to launch.
func ErrRecorderStart(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_RESOURCE,
		Message:  "recorder start failed",
	}
}

// ErrAgentUnreachable indicates the remote agent stopped responding mid-session.
func ErrAgentUnreachable(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_RESOURCE,
		Message:  "remote agent unreachable",
	}
}

// ErrDegradedShutdown indicates Stop exceeded its deadline and the recorder
// had to be force-killed.
func ErrDegradedShutdown(sessionID string) AppError {
	return AppError{
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_RESOURCE,
		Message:  "degraded shutdown: recorder force-killed",
	}.WithDetail("session_id", sessionID)
}

// Store Errors

// ErrStoreConflict indicates another dispatch already claimed the meeting.
func ErrStoreConflict(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_STORE_CONFLICT,
		Message:  "meeting already claimed",
	}.WithDetail("meeting_id", meetingID)
}

func ErrMeetingNotFound(meetingID string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  "Meeting not found",
	}.WithDetail("meeting_id", meetingID)
}

func ErrMeetingAlreadyExists(name string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_ALREADY_EXISTS,
		Message:  "Meeting already exists",
	}.WithDetail("name", name)
}

// Classification helpers

// CodeOf extracts the ErrorCode from err, or ErrorCode_INTERNAL if err is
// not an AppError.
func CodeOf(err error) ErrorCode {
	var app AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return ErrorCode_INTERNAL
}

// IsStoreConflict reports whether err is a lost compare-and-set race.
func IsStoreConflict(err error) bool {
	return CodeOf(err) == ErrorCode_STORE_CONFLICT
}

// IsResource reports whether err is a resource failure.
func IsResource(err error) bool {
	return CodeOf(err) == ErrorCode_RESOURCE
}

// Reason renders err as the opaque failure-reason string recorded on the
// meeting. Automation and resource errors keep only their short message;
// anything else keeps the full error text.
func Reason(err error) string {
	var app AppError
	if errors.As(err, &app) {
		return app.Message
	}
	return err.Error()
}
