package models

import (
	"errors"
	"sort"
	"strings"
)

// Domain error kinds. Callers wrap them with fmt.Errorf("...: %w", err) and the
// API layer maps them onto status codes with errors.Is / errors.As.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrUnauthenticated    = errors.New("authentication credentials were not provided")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("conflict")
)

// ValidationError carries field-level messages. Field names are preserved so
// clients can highlight the offending inputs.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates a validation error with a single field message
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add appends a message for a field
func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], message)
}

// HasErrors reports whether any field message was recorded
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.Fields) > 0
}

// OrNil returns nil when nothing was recorded, so it can be returned as error.
func (v *ValidationError) OrNil() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}

// Error combines the field messages into one human readable sentence,
// e.g. "price: Price is required. status: Invalid choice".
func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Fields))
	for field := range v.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		msg := strings.Join(v.Fields[field], ". ")
		if field == NonFieldErrors {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, ". ")
}

// NonFieldErrors is the key for messages not bound to a single input
const NonFieldErrors = "non_field_errors"

// DetailError attaches a client-facing detail to one of the error kinds
type DetailError struct {
	Kind   error
	Detail string
}

// NewDetailError creates an error of the given kind with a readable detail,
// e.g. NewDetailError(ErrConflict, "Shift already closed").
func NewDetailError(kind error, detail string) *DetailError {
	return &DetailError{Kind: kind, Detail: detail}
}

func (e *DetailError) Error() string { return e.Detail }

func (e *DetailError) Unwrap() error { return e.Kind }
