// Package errors provides structured error types for schemahub.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the pipeline, CLI and HTTP preview
//   - Machine-readable error codes for grouping and reporting
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The validation taxonomy codes are what end up in error reports and owner
// notifications:
//   - UNSUPPORTED_SCHEMA_KIND: configured schema kind is not known
//   - SOURCE_UNAVAILABLE: clone, fetch or checkout failed
//   - NO_TAGS_FOUND: a repository has no usable release tags
//   - INVALID_VERSION: a tag label is not a semantic version
//   - MISSING_FILE: a required artifact is absent from a release
//   - INVALID_SCHEMA: the schema artifact failed validation
//
// The remaining codes describe infrastructure and input problems.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingFile, "required file %s was not found", name)
//	if errors.Is(err, errors.ErrCodeMissingFile) {
//	    // Handle missing file
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeSourceUnavailable, origErr, "cannot clone %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Validation taxonomy codes.
const (
	ErrCodeUnsupportedSchemaKind Code = "UNSUPPORTED_SCHEMA_KIND"
	ErrCodeSourceUnavailable     Code = "SOURCE_UNAVAILABLE"
	ErrCodeNoTagsFound           Code = "NO_TAGS_FOUND"
	ErrCodeInvalidVersion        Code = "INVALID_VERSION"
	ErrCodeMissingFile           Code = "MISSING_FILE"
	ErrCodeInvalidSchema         Code = "INVALID_SCHEMA"
)

// Infrastructure and input codes.
const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidPath   Code = "INVALID_PATH"
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeStorage       Code = "STORAGE_ERROR"
	ErrCodeDelivery      Code = "DELIVERY_ERROR"
	ErrCodeInternal      Code = "INTERNAL_ERROR"
)

// Taxonomy lists the validation taxonomy codes in report order.
var Taxonomy = []Code{
	ErrCodeUnsupportedSchemaKind,
	ErrCodeSourceUnavailable,
	ErrCodeNoTagsFound,
	ErrCodeInvalidVersion,
	ErrCodeMissingFile,
	ErrCodeInvalidSchema,
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsTaxonomy reports whether code is one of the validation taxonomy codes.
func IsTaxonomy(code Code) bool {
	for _, c := range Taxonomy {
		if c == code {
			return true
		}
	}
	return false
}
