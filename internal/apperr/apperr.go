// Package apperr defines the error kinds surfaced to callers of the dashboard core.
// All of them are recoverable; a rejected call leaves every record unmodified.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	KindUnknown Kind = iota
	KindPermissionDenied
	KindInvalidStateTransition
	KindValidation
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindInvalidStateTransition:
		return "InvalidStateTransition"
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFound"
	}
	return "Unknown"
}

// Sentinels for errors.Is.
var (
	ErrPermissionDenied  = &Error{Kind: KindPermissionDenied}
	ErrInvalidTransition = &Error{Kind: KindInvalidStateTransition}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

// FieldError points at one malformed input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a classified domain error.
type Error struct {
	Kind    Kind         `json:"kind"`
	Op      string       `json:"op,omitempty"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	for i, f := range e.Fields {
		if i == 0 {
			b.WriteString(" (")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(f.Field)
		b.WriteString(": ")
		b.WriteString(f.Message)
		if i == len(e.Fields)-1 {
			b.WriteString(")")
		}
	}
	return b.String()
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works on wrapped values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// FieldsOf returns the field-level detail of a validation error.
func FieldsOf(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

func PermissionDenied(op, format string, args ...any) *Error {
	return &Error{Kind: KindPermissionDenied, Op: op, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidStateTransition, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NotFound(op, entity, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf("%s %q not found", entity, id)}
}

// Validation builds a validation error from field errors. It returns nil when fields is empty,
// which lets validators collect problems and return the result directly.
func Validation(op string, fields ...FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Op: op, Message: "invalid input", Fields: fields}
}

// Field is shorthand for a FieldError literal.
func Field(name, format string, args ...any) FieldError {
	return FieldError{Field: name, Message: fmt.Sprintf(format, args...)}
}
