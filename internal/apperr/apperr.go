// Package apperr defines the single error type returned across service boundaries.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError.
type Kind string

const (
	KindBadRequest      Kind = "BAD_REQUEST"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindInvalidToken    Kind = "INVALID_TOKEN"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindExpired         Kind = "EXPIRED"
	KindInvalid         Kind = "INVALID"
	KindInternal        Kind = "INTERNAL"
)

// AppError carries a kind, a client-facing message and optional field errors.
type AppError struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError by kind so callers can write errors.Is(err, apperr.NotFound("")).
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

func newErr(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func BadRequest(message string) *AppError      { return newErr(KindBadRequest, message) }
func Unauthenticated(message string) *AppError { return newErr(KindUnauthenticated, message) }
func InvalidToken(message string) *AppError    { return newErr(KindInvalidToken, message) }
func Forbidden(message string) *AppError       { return newErr(KindForbidden, message) }
func NotFound(message string) *AppError        { return newErr(KindNotFound, message) }
func Conflict(message string) *AppError        { return newErr(KindConflict, message) }
func Expired(message string) *AppError         { return newErr(KindExpired, message) }
func Invalid(message string) *AppError         { return newErr(KindInvalid, message) }

// Internal wraps an unexpected failure. The cause is logged, never sent to clients.
func Internal(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// Validation builds a BadRequest carrying per-field messages.
func Validation(fields map[string]string) *AppError {
	return &AppError{Kind: KindBadRequest, Message: "validation failed", Fields: fields}
}

// KindOf returns the kind of err, treating anything that is not an AppError as internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindBadRequest, KindInvalid:
		return http.StatusBadRequest
	case KindUnauthenticated, KindInvalidToken:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// From normalises err into an AppError, wrapping unknown errors as internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("something went wrong", err)
}
