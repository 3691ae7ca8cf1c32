// Package errors defines the error kinds Deskly services return and the HTTP
// status and code each one maps to.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds. Every AppError wraps one of these, so errors.Is works
// across service boundaries.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrGone           = errors.New("gone")
	ErrUnprocessable  = errors.New("unprocessable")
	ErrServiceUnavail = errors.New("service unavailable")
)

type kind struct {
	sentinel error
	code     string
	status   int
	message  string
}

// kinds is ordered; the first match wins when an error wraps several.
var kinds = []kind{
	{ErrNotFound, "NOT_FOUND", http.StatusNotFound, "resource not found"},
	{ErrInvalidInput, "INVALID_INPUT", http.StatusBadRequest, "invalid input"},
	{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, "authentication required"},
	{ErrForbidden, "FORBIDDEN", http.StatusForbidden, "not allowed"},
	{ErrConflict, "CONFLICT", http.StatusConflict, "resource state conflict"},
	{ErrGone, "GONE", http.StatusGone, "resource no longer available"},
	{ErrUnprocessable, "UNPROCESSABLE", http.StatusUnprocessableEntity, "request cannot be processed"},
	{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service is unavailable, please try again"},
	{ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError, "an internal error occurred"},
}

// AppError carries a stable code, a message safe to show a user and the
// HTTP status it maps to. Err is for logs only.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func newError(sentinel error, message string) *AppError {
	for _, k := range kinds {
		if k.sentinel == sentinel {
			return &AppError{Code: k.code, Message: message, Status: k.status, Err: sentinel}
		}
	}
	panic("errors: unknown kind")
}

// NotFound reports a missing resource of the given kind.
func NotFound(resource, id string) *AppError {
	return newError(ErrNotFound, fmt.Sprintf("%s with id %s not found", resource, id))
}

func InvalidInput(message string) *AppError  { return newError(ErrInvalidInput, message) }
func Unauthorized(message string) *AppError  { return newError(ErrUnauthorized, message) }
func Forbidden(message string) *AppError     { return newError(ErrForbidden, message) }
func Conflict(message string) *AppError      { return newError(ErrConflict, message) }
func Unprocessable(message string) *AppError { return newError(ErrUnprocessable, message) }

// Gone reports a product withdrawn from the catalog.
func Gone(message string) *AppError { return newError(ErrGone, message) }

// Unavailable reports a collaborator that cannot be reached. cause stays
// matchable with errors.Is.
func Unavailable(message string, cause error) *AppError {
	e := newError(ErrServiceUnavail, message)
	if cause != nil {
		e.Err = fmt.Errorf("%w: %w", ErrServiceUnavail, cause)
	}
	return e
}

// Internal hides err behind a generic 500.
func Internal(err error) *AppError {
	e := newError(ErrInternal, "an internal error occurred")
	if err != nil {
		e.Err = fmt.Errorf("%w: %w", ErrInternal, err)
	}
	return e
}

// From returns err as an AppError. A wrapped sentinel gets its kind's
// generic message, except invalid input which keeps err's text; anything
// else is Internal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			msg := k.message
			if k.sentinel == ErrInvalidInput {
				msg = err.Error()
			}
			return &AppError{Code: k.code, Message: msg, Status: k.status, Err: err}
		}
	}
	return Internal(err)
}

// HTTPStatus returns the status err maps to.
func HTTPStatus(err error) int {
	return From(err).Status
}
