package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
)

// Workflow errors. Infrastructure failures (transform, validation, LLM, publish)
// are surfaced to the caller; the content item keeps its pre-transition state.
var (
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrTransformFailed       = errors.New("link transform failed")
	ErrValidationUnavailable = errors.New("validation unavailable")
	ErrLLMCallFailed         = errors.New("llm call failed")
	ErrPublishFailed         = errors.New("publish failed")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// TransitionError reports an operation attempted from a status that does not allow it.
type TransitionError struct {
	From   ContentStatus
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s content in status %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// NewTransitionError creates a TransitionError.
func NewTransitionError(from ContentStatus, action string) *TransitionError {
	return &TransitionError{From: from, Action: action}
}
