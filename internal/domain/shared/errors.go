// Package shared contains common domain types, errors, and events used across
// all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors, matched with errors.Is().
var (
	// Constraint violations on write. These are rejected synchronously at the
	// call site and never silently dropped or auto-corrected.
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrCapacityExceeded = errors.New("student capacity exceeded")
	ErrUnknownStudent   = errors.New("unknown student")
	ErrInvalidScore     = errors.New("score out of range [0,100]")

	// ErrNotFound signals a lookup miss. Callers choose how to surface it;
	// it is not necessarily an error condition.
	ErrNotFound = errors.New("record not found")

	// ErrBatchTimeout is the terminal outcome of a batch that hit its global
	// deadline. Partial results collected before the deadline are preserved.
	ErrBatchTimeout = errors.New("batch timed out")

	// Entity construction errors.
	ErrInvalidName     = errors.New("invalid name: must be 1-100 chars")
	ErrInvalidAge      = errors.New("invalid age: must be between 5 and 120")
	ErrInvalidEmail    = errors.New("invalid email")
	ErrInvalidCategory = errors.New("invalid student category")
	ErrInvalidSubject  = errors.New("invalid subject: must be non-empty")
)

// DomainError carries the component and operation that produced a base error.
type DomainError struct {
	Component string // e.g. "directory", "ledger", "batch"
	Op        string // operation that failed, e.g. "AddStudent"
	Kind      error  // base error for errors.Is() matching
	Message   string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s.%s: %s: %v", e.Component, e.Op, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s.%s: %v", e.Component, e.Op, e.Kind)
}

// Unwrap returns the base error.
func (e *DomainError) Unwrap() error {
	return e.Kind
}

// NewDomainError creates a domain error wrapping a base error.
func NewDomainError(component, op string, kind error, message string) *DomainError {
	return &DomainError{Component: component, Op: op, Kind: kind, Message: message}
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConstraintViolation reports whether err is a rejected write.
func IsConstraintViolation(err error) bool {
	return errors.Is(err, ErrDuplicateEmail) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrUnknownStudent) ||
		errors.Is(err, ErrInvalidScore)
}
