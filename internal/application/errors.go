package application

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is the single outcome of every failed login check.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrUnauthenticated is returned when an operation requires a session and none is present.
	ErrUnauthenticated = errors.New("application: unauthenticated")
	// ErrForbidden is returned when the acting principal lacks the role required for an operation.
	ErrForbidden = errors.New("application: forbidden")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrStudentNotFound narrows ErrNotFound to student lookups.
	ErrStudentNotFound = fmt.Errorf("%w: student", ErrNotFound)
	// ErrFileMissing is returned when a material record exists but its stored file does not.
	ErrFileMissing = errors.New("application: file missing")
	// ErrAlreadyExists is returned when a username is already taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrIncorrectPassword is returned when the current password supplied for a change does not match.
	ErrIncorrectPassword = errors.New("application: incorrect password")
	// ErrContentTooLarge is returned by file stores when content exceeds the size ceiling.
	ErrContentTooLarge = errors.New("application: content too large")
)

// ValidationError captures field level validation issues that callers can surface to users.
// Message is the summary shown to clients.
type ValidationError struct {
	Message     string
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if v.Message != "" {
		return v.Message
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// withMessage sets the client facing summary and returns the receiver.
func (v *ValidationError) withMessage(message string) *ValidationError {
	v.Message = message
	return v
}
