// Package errors provides coded errors shared by the fetch, normalize and
// analysis pipeline.
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeMissingCredential, "provider %s requires an API key", kind)
//	if errors.HasCode(err, errors.ErrCodeMissingCredential) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error is a structured error carrying an ErrorCode.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps cause with a code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Wrapf wraps cause with a code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is is a passthrough to the standard errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a passthrough to the standard errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from the first coded error in err's chain.
// Returns ErrCodeUnknown when none is found.
func GetCode(err error) ErrorCode {
	var shapeErr *ShapeError
	if errors.As(err, &shapeErr) {
		return ErrCodeUnrecognizedPayloadShape
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c Coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ErrCodeUnknown
}

// Coder is implemented by errors defined outside this package that belong to
// a code.
type Coder interface {
	error
	ErrorCode() ErrorCode
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// ShapeError reports a payload that matches none of the layouts known for
// its provider.
type ShapeError struct {
	Provider string
	Reason   string
}

// NewShapeError creates a ShapeError for provider.
func NewShapeError(provider, format string, args ...any) *ShapeError {
	return &ShapeError{Provider: provider, Reason: fmt.Sprintf(format, args...)}
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unrecognized %s payload: %s", e.Provider, e.Reason)
}

// IsShapeError reports whether err's chain contains a ShapeError.
func IsShapeError(err error) bool {
	var shapeErr *ShapeError
	return errors.As(err, &shapeErr)
}
