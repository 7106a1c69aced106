package errs

import (
	"errors"
	"fmt"
)

// The cancellation engine distinguishes four failure classes that callers
// react to differently; everything else is treated as infrastructure failure.

// ValidationError reports missing or malformed caller input.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError from a format string.
func Validation(format string, args ...any) error {
	return ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// PreconditionError reports a booking or traveller state that forbids the
// requested operation. No mutation has been attempted.
type PreconditionError struct {
	Msg string
}

func (e PreconditionError) Error() string { return e.Msg }

func Precondition(format string, args ...any) error {
	return PreconditionError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing booking, tour, fee-tier schedule or
// cancellation record.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string { return e.Resource + " not found" }

func NotFound(resource string) error {
	return NotFoundError{Resource: resource}
}

// ConflictError reports a record whose status no longer admits the requested
// transition, including concurrent-update version mismatches.
type ConflictError struct {
	Msg string
}

func (e ConflictError) Error() string { return e.Msg }

func Conflict(format string, args ...any) error {
	return ConflictError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsPrecondition(err error) bool {
	var target PreconditionError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}
