package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity id does not resolve to any row.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when an entity exists but the principal is not its owner.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState is returned when an operation references a parent entity
	// that does not exist, e.g. creating a phone number under a missing contact.
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict is reserved for future uniqueness violations.
	ErrConflict = errors.New("conflict")

	// ErrStore is returned when a transaction is aborted for any reason. The
	// whole operation rolls back; no partial writes survive.
	ErrStore = errors.New("store failure")
)

type AppError struct {
	Err     error  // taxonomy sentinel
	Message string // Human-readable error message
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource string, id interface{}) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func InvalidState(message string) *AppError {
	return &AppError{
		Err:     ErrInvalidState,
		Message: message,
	}
}

// StoreFailure wraps a low-level database error. The original error is kept
// for logs but callers only ever match on ErrStore.
func StoreFailure(err error) *AppError {
	return &AppError{
		Err:     ErrStore,
		Message: fmt.Sprintf("store failure: %v", err),
	}
}
