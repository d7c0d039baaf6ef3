// Package apperr defines the error taxonomy shared by the service, the GraphQL layer and the
// client. Every error type unwraps to one of the exported sentinels so callers can use
// errors.Is, and carries a stable code for GraphQL extensions.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("already exists")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrNotFound        = errors.New("not found")
)

const (
	CodeBadUserInput    = "BAD_USER_INPUT"
	CodeConflict        = "CONFLICT"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeNotFound        = "NOT_FOUND"
	CodeInternal        = "INTERNAL"
)

// ValidationError reports bad input shape for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": CodeBadUserInput, "field": e.Field}
}

// ConflictError reports a uniqueness violation on Field (username or email).
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists", e.Field)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func (e *ConflictError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": CodeConflict, "field": e.Field}
}

// AuthenticationError is returned for bad credentials at login and for guarded operations
// reached without a valid token. The message never says which check failed.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return ErrUnauthenticated.Error()
	}
	return e.Message
}

func (e *AuthenticationError) Unwrap() error { return ErrUnauthenticated }

func (e *AuthenticationError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": CodeUnauthenticated}
}

// NotFoundError reports a missing resource, e.g. removing a book that is not saved.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func (e *NotFoundError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": CodeNotFound}
}

func NotAuthenticated() error {
	return &AuthenticationError{Message: "not authenticated"}
}

func InvalidCredentials() error {
	return &AuthenticationError{Message: "invalid credentials"}
}

// Code maps any error to its public code.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return CodeBadUserInput
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}

// HTTPStatus maps an error to the status the REST-ish endpoints use.
func HTTPStatus(err error) int {
	switch Code(err) {
	case CodeBadUserInput:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
