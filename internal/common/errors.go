// Package common defines the sentinel errors and error types shared by the
// service and transport layers of notsy. Callers should use errors.Is and
// errors.As to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Input errors (malformed or empty payloads).
	ErrorValidation = errors.New("validation error")
)

// ValidationError carries a human-readable message for a rejected input.
// It matches ErrorValidation through errors.Is.
type ValidationError struct {
	Msg string
}

// NewValidationError returns a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Msg: msg}
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrorValidation
}

// StoreError reports a failure of the note store or the image store.
// Op names the collaborator call that failed, e.g. "note store update".
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Detail returns the underlying collaborator message without the Op prefix.
func (e *StoreError) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}
