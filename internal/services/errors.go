package services

import (
	"errors"
	"fmt"

	"task-planner/backend/internal/store"
)

var (
	// ErrNotFound covers both an absent id and an id owned by someone else.
	ErrNotFound = errors.New("not found")

	ErrValidation = errors.New("validation error")
	ErrStorage    = errors.New("storage error")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageError wraps a failed store call. It is surfaced as-is and never retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// classify maps a store error onto the service taxonomy. Errors that already
// belong to it pass through untouched.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrValidation), errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	default:
		return &StorageError{Op: op, Err: err}
	}
}
