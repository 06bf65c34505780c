package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("resource conflict")
	ErrValidation         = errors.New("validation failed")
)

// notFound wraps ErrNotFound with the kind of entity that did not resolve.
func notFound(entity string) error {
	return fmt.Errorf("%s: %w", entity, ErrNotFound)
}

// ForbiddenError is a policy denial. It carries a message for the user and
// the path the client should go back to.
type ForbiddenError struct {
	Reason   string
	Redirect string
}

func (e *ForbiddenError) Error() string {
	return "forbidden: " + e.Reason
}

func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

func forbidden(reason, redirect string) error {
	return &ForbiddenError{Reason: reason, Redirect: redirect}
}

// ValidationError maps input field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalidField(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}
