package application

import (
	"errors"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withMessage := (&ValidationError{FieldErrors: map[string]string{"field": "invalid"}}).withMessage("Invalid input.")
	if got := withMessage.Error(); got != "Invalid input." {
		t.Fatalf("expected summary message, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if err := (&ValidationError{}).HasErrors(); err {
		t.Fatalf("expected HasErrors to report false for empty error")
	}

	if err := (&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors(); !err {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_Add(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	base.add("first", "replaced")
	if got := base.FieldErrors["first"]; got != "replaced" {
		t.Fatalf("expected add to overwrite field, got %q", got)
	}
}

func TestStudentNotFoundWrapsNotFound(t *testing.T) {
	t.Parallel()

	if !errors.Is(ErrStudentNotFound, ErrNotFound) {
		t.Fatalf("expected ErrStudentNotFound to match ErrNotFound")
	}
	if errors.Is(ErrNotFound, ErrStudentNotFound) {
		t.Fatalf("generic not found must not match the student variant")
	}
}

func TestValidateInput(t *testing.T) {
	t.Parallel()

	if vErr := validateInput(credentialsShape{Username: "alice1", Password: "abcd"}, "Invalid input."); vErr != nil {
		t.Fatalf("expected valid input, got %v", vErr.FieldErrors)
	}

	vErr := validateInput(credentialsShape{Username: "al ice", Password: "abc"}, "Invalid input.")
	if vErr == nil {
		t.Fatalf("expected validation failure")
	}
	if vErr.Message != "Invalid input." {
		t.Fatalf("unexpected summary %q", vErr.Message)
	}
	if _, ok := vErr.FieldErrors["username"]; !ok {
		t.Fatalf("expected json field name for username, got %v", vErr.FieldErrors)
	}
	if msg := vErr.FieldErrors["password"]; msg != "password must be at least 4 characters in length" {
		t.Fatalf("expected translated password message, got %q", msg)
	}
}
