package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies client-visible failures so HTTP wrappers can translate
// them without parsing messages.
type ErrorKind string

const (
	// ErrorKindSchema marks an unknown entity, relation or field in a query
	// specification. Client input error.
	ErrorKindSchema ErrorKind = "schema"
	// ErrorKindFunction marks an unknown or type-incompatible aggregation or
	// truncation. Client input error.
	ErrorKindFunction ErrorKind = "function"
	// ErrorKindValidation marks a structurally invalid query specification,
	// e.g. one with no columns.
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindCompileDefect marks an internal inconsistency between the
	// validator and the compiler function tables. Programming error, never a
	// client problem.
	ErrorKindCompileDefect ErrorKind = "compile_defect"
)

// Error is the structured error the query engine reports for validation and
// compilation failures.
type Error struct {
	Kind     ErrorKind
	Message  string
	Path     string // offending field path, when known
	Function string // offending aggregation/truncation name, when known
}

func (e *Error) Error() string {
	return e.Message
}

// NewSchemaError reports an unknown entity, relation or field.
func NewSchemaError(path, format string, args ...any) *Error {
	return &Error{Kind: ErrorKindSchema, Path: path, Message: fmt.Sprintf(format, args...)}
}

// NewFunctionError reports an unknown or type-incompatible function.
func NewFunctionError(function, format string, args ...any) *Error {
	return &Error{Kind: ErrorKindFunction, Function: function, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError reports a structurally invalid query specification.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: ErrorKindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewCompileDefect reports a validator/compiler inconsistency.
func NewCompileDefect(function, format string, args ...any) *Error {
	return &Error{Kind: ErrorKindCompileDefect, Function: function, Message: fmt.Sprintf(format, args...)}
}

// ErrorKindOf extracts the kind of a structured engine error, or "" when err
// is not one.
func ErrorKindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsClientError reports whether err should map to a bad-request class
// response rather than an internal failure.
func IsClientError(err error) bool {
	switch ErrorKindOf(err) {
	case ErrorKindSchema, ErrorKindFunction, ErrorKindValidation:
		return true
	default:
		return false
	}
}
