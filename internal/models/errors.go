package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrPersistence           = errors.New("persistence failure")
	ErrSettingsNotConfigured = errors.New("office settings are not configured")
	ErrUserNotFound          = errors.New("user not found")
)

// ValidationError reports malformed input at construction time.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistenceError wraps a storage failure. It is surfaced to callers as is;
// nothing in the core retries it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// NewPersistenceError returns nil when err is nil.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}
