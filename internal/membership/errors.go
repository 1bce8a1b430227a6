package membership

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors returned by the services.
var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateIdentity indicates another member already holds the identity document number.
	ErrDuplicateIdentity = errors.New("a member with this Aadhar card number already exists")
	// ErrDuplicateEmail indicates another member already uses the email address.
	ErrDuplicateEmail = errors.New("a member with this email already exists")
	// ErrInvalidTransition indicates a subscription status change that is not allowed.
	ErrInvalidTransition = errors.New("invalid subscription status transition")
)

// NotFoundError names the missing entity. It matches ErrNotFound.
type NotFoundError struct {
	Entity string
	ID     uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func notFound(entity string, id uint64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError collects per-field messages keyed by JSON field name. It matches ErrValidation.
type ValidationError struct {
	Fields map[string][]string `json:"fields"`
}

// Add records a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no messages were recorded.
func (e *ValidationError) Empty() bool { return e == nil || len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	if e.Empty() {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+strings.Join(e.Fields[k], ", "))
	}
	return strings.Join(parts, "; ")
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// errOrNil returns e as an error only when it carries messages.
func (e *ValidationError) errOrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func fieldError(field, message string) error {
	ve := &ValidationError{}
	ve.Add(field, message)
	return ve
}
