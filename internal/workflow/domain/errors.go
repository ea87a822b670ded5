package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Sentinel errors matched with errors.Is by callers that only need the kind.
var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrValidation           = errors.New("validation failed")
	ErrTransitionNotAllowed = errors.New("transition not allowed")
)

// Stable error codes exposed to callers.
const (
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeValidation           = "VALIDATION_ERROR"
	CodeTransitionNotAllowed = "TRANSITION_NOT_ALLOWED"
)

// CodedError is implemented by every operational error in this package.
type CodedError interface {
	error
	Code() string
}

// NotFoundError reports a missing or foreign-tenant resource.
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFoundError creates a NotFoundError for resource.
func NewNotFoundError(resource string, id uuid.UUID) *NotFoundError {
	e := &NotFoundError{Resource: resource}
	if id != uuid.Nil {
		e.ID = id.String()
	}
	return e
}

func (e *NotFoundError) Error() string        { return e.Resource + " not found" }
func (e *NotFoundError) Code() string         { return CodeNotFound }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a request that contradicts current state.
type ConflictError struct {
	Message string
}

// NewConflictError formats a ConflictError.
func NewConflictError(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func (e *ConflictError) Error() string        { return e.Message }
func (e *ConflictError) Code() string         { return CodeConflict }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates a ValidationError with one message for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	v := &ValidationError{}
	v.Add(field, fmt.Sprintf(format, args...))
	return v
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no messages were collected.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

// OrNil returns e, or nil when it holds no messages.
func (e *ValidationError) OrNil() error {
	if e == nil || e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Fields[f], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Code() string         { return CodeValidation }
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// TransitionNotAllowedError reports a move the workflow graph forbids.
// From and To are display names for rendering.
type TransitionNotAllowedError struct {
	From   string
	To     string
	FromID uuid.UUID
	ToID   uuid.UUID
}

func (e *TransitionNotAllowedError) Error() string {
	return fmt.Sprintf("transition from %q to %q is not allowed", e.From, e.To)
}

func (e *TransitionNotAllowedError) Code() string         { return CodeTransitionNotAllowed }
func (e *TransitionNotAllowedError) Is(target error) bool { return target == ErrTransitionNotAllowed }

// ErrorCode returns the stable code of an operational error, or "" for anything else.
func ErrorCode(err error) string {
	var coded CodedError
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}
