package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so callers can decide the next action
// without parsing messages.
type Kind int

const (
	// KindValidation means the input was malformed and was rejected
	// before anything was persisted.
	KindValidation Kind = iota + 1
	// KindConflict means the requested slot is already claimed. Retryable
	// by the caller after re-querying availability.
	KindConflict
	// KindState means the operation is not legal for the current
	// appointment status.
	KindState
	// KindNotFound means the referenced entity does not exist.
	KindNotFound
	// KindInternal covers infrastructure failures.
	KindInternal
)

// AppError is the error type surfaced by every service operation.
type AppError struct {
	Kind    Kind   `json:"-"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status. The error-handling
// middleware picks this up via the StatusCode() interface.
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindState:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// FieldName names the offending field for validation errors; empty
// otherwise.
func (e *AppError) FieldName() string {
	return e.Field
}

func Validation(field, message string) *AppError {
	return &AppError{Kind: KindValidation, Field: field, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func State(message string) *AppError {
	return &AppError{Kind: KindState, Message: message}
}

func NotFound(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "internal error", Err: err}
}

func kindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return 0
}

func IsValidation(err error) bool { return kindOf(err) == KindValidation }
func IsConflict(err error) bool   { return kindOf(err) == KindConflict }
func IsState(err error) bool      { return kindOf(err) == KindState }
func IsNotFound(err error) bool   { return kindOf(err) == KindNotFound }
