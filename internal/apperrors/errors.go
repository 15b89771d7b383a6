package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	CodeNotFound                ErrorCode = "NOT_FOUND"
	CodeConflict                ErrorCode = "CONFLICT"
	CodeBadRequest              ErrorCode = "BAD_REQUEST"
	CodeForbidden               ErrorCode = "FORBIDDEN"
	CodeQueueClosed             ErrorCode = "QUEUE_CLOSED"
	CodeQueuePaused             ErrorCode = "QUEUE_PAUSED"
	CodeQueueFull               ErrorCode = "QUEUE_FULL"
	CodeAlreadyInQueue          ErrorCode = "ALREADY_IN_QUEUE"
	CodeInvalidStatusTransition ErrorCode = "INVALID_STATUS_TRANSITION"
	CodeSlotFull                ErrorCode = "SLOT_FULL"
	CodeWrongAttraction         ErrorCode = "WRONG_ATTRACTION"
	CodeInternal                ErrorCode = "INTERNAL"
)

// AppError is a typed domain error carrying a machine-readable code, a
// human message and the HTTP status the boundary layer should map it to.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Fields     map[string]any `json:"fields,omitempty"`
	Cause      error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithField(key string, value any) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func New(code ErrorCode, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, http.StatusNotFound, message)
}

func Conflict(code ErrorCode, message string) *AppError {
	return New(code, http.StatusConflict, message)
}

func BadRequest(code ErrorCode, message string) *AppError {
	return New(code, http.StatusBadRequest, message)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, http.StatusForbidden, message)
}

func Internal(err error) *AppError {
	return New(CodeInternal, http.StatusInternalServerError, "Something went wrong.").WithCause(err)
}

// As unwraps err into an *AppError, or wraps unexpected errors as internal
// so store failures are never silently reinterpreted as domain outcomes.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
