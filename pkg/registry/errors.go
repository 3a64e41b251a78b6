package registry

import (
	"fmt"

	"github.com/matzehuels/schemahub/pkg/errors"
	"github.com/matzehuels/schemahub/pkg/version"
)

// ValidationError is one failure observed while processing a package or one
// of its releases. Code is always one of [errors.Taxonomy]. Release is nil for
// package-level failures.
//
// ValidationError unwraps to an *errors.Error with the same code, so
// errors.Is(err, errors.ErrCodeMissingFile) works on it.
type ValidationError struct {
	Code    errors.Code
	Source  PackageSource
	Release *version.Release
	Detail  string
	Cause   error
}

// NewValidationError builds a ValidationError with a formatted detail.
func NewValidationError(code errors.Code, src PackageSource, rel *version.Release, format string, args ...any) *ValidationError {
	return &ValidationError{
		Code:    code,
		Source:  src,
		Release: rel,
		Detail:  fmt.Sprintf(format, args...),
	}
}

// AsValidationError converts a coded error raised for src (and rel) into a
// ValidationError. Errors without a taxonomy code become INVALID_SCHEMA for
// tag-level failures and SOURCE_UNAVAILABLE otherwise.
func AsValidationError(err error, src PackageSource, rel *version.Release) *ValidationError {
	if ve, ok := err.(*ValidationError); ok {
		return ve
	}
	code := errors.GetCode(err)
	if !errors.IsTaxonomy(code) {
		code = errors.ErrCodeSourceUnavailable
		if rel != nil {
			code = errors.ErrCodeInvalidSchema
		}
	}
	return &ValidationError{
		Code:    code,
		Source:  src,
		Release: rel,
		Detail:  errors.UserMessage(err),
		Cause:   err,
	}
}

// Version returns the release version, or "" for package-level errors.
func (e *ValidationError) Version() string {
	if e.Release == nil {
		return ""
	}
	return e.Release.Version
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.subject(), e.Code, e.Detail)
}

// Unwrap exposes the coded error for errors.Is / errors.As.
func (e *ValidationError) Unwrap() error {
	return &errors.Error{Code: e.Code, Message: e.Detail, Cause: e.Cause}
}

// Line is the canonical single-line rendering used in reports and
// fingerprints. It does not include the cause, which may carry volatile
// transport details.
func (e *ValidationError) Line() string {
	return fmt.Sprintf("%s %s: %s", e.subject(), e.Code, e.Detail)
}

func (e *ValidationError) subject() string {
	if e.Release == nil {
		return e.Source.Slug()
	}
	return e.Source.Slug() + "@" + e.Release.Version
}
