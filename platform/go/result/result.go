package result

import (
	"context"
	"errors"
	"fmt"
)

// Code is the machine-readable failure category returned by every service operation.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeNotFound           Code = "NOT_FOUND"
	CodeDatabase           Code = "DATABASE_ERROR"
	CodeDuplicateEntry     Code = "DUPLICATE_ENTRY"
	CodeCapacityExceeded   Code = "CAPACITY_EXCEEDED"
	CodeSchedulingConflict Code = "SCHEDULING_CONFLICT"
	CodeCircularReference  Code = "CIRCULAR_REFERENCE"
	CodeUnknown            Code = "UNKNOWN_ERROR"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// Add appends a message for the given field.
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Error is the failure variant of a service result.
type Error struct {
	Code    Code
	Message string
	Details any
	Fields  FieldErrors
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails returns a copy carrying the provided details payload.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Validation reports input-shape problems. A nil or empty map still yields a validation error.
func Validation(fields FieldErrors) *Error {
	return &Error{Code: CodeValidation, Message: "validation failed", Fields: fields}
}

// InvalidField is shorthand for a single-field validation error.
func InvalidField(field, message string) *Error {
	return Validation(FieldErrors{field: []string{message}})
}

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

func Duplicate(message string, cause error) *Error {
	return &Error{Code: CodeDuplicateEntry, Message: message, cause: cause}
}

func CapacityExceeded(message string, details any) *Error {
	return &Error{Code: CodeCapacityExceeded, Message: message, Details: details}
}

func SchedulingConflict(message string, details any) *Error {
	return &Error{Code: CodeSchedulingConflict, Message: message, Details: details}
}

func CircularReference(message string) *Error {
	return &Error{Code: CodeCircularReference, Message: message}
}

// Database wraps a store failure.
func Database(cause error) *Error {
	return &Error{Code: CodeDatabase, Message: "database operation failed", cause: cause}
}

func Unknown(cause error) *Error {
	return &Error{Code: CodeUnknown, Message: "unexpected error", cause: cause}
}

// As extracts the result error from err, if any.
func As(err error) (*Error, bool) {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr, true
	}
	return nil, false
}

// CodeOf classifies any error. Untyped errors are UNKNOWN_ERROR and nil has no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if rerr, ok := As(err); ok {
		return rerr.Code
	}
	return CodeUnknown
}

// Wrap converts an arbitrary error into a result error, leaving typed errors untouched.
// Context cancellation is reported as UNKNOWN_ERROR; everything else is assumed to come from the store.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Unknown(err)
	}
	return Database(err)
}
