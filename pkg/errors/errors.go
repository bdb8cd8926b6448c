// Package errors provides structured error types for the cellar application.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code] so the CLI can tell a full rack apart from a broken database or a
// bad input file without matching on message text.
//
// # Error Codes
//
//   - CAPACITY_EXCEEDED: the rack (or one stack of it) cannot hold the bottles
//   - PLACEMENT_INVARIANT: the placement engine reached a state it should not
//   - DEGENERATE_BINNING: binning was asked to partition an empty dataset
//   - INVALID_*: input validation failures
//   - NOT_FOUND: a referenced bottle, label or winery does not exist
//   - STORAGE: the SQLite layer failed
//
// # Usage
//
//	err := errors.New(errors.ErrCodeCapacityExceeded, "stack %d is full", idx)
//	if errors.Is(err, errors.ErrCodeCapacityExceeded) {
//	    // the rack is genuinely full
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorage, origErr, "load bottles")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Placement errors
	ErrCodeCapacityExceeded   Code = "CAPACITY_EXCEEDED"
	ErrCodePlacementInvariant Code = "PLACEMENT_INVARIANT"
	ErrCodeDegenerateBinning  Code = "DEGENERATE_BINNING"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFile   Code = "INVALID_FILE"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Persistence errors
	ErrCodeStorage Code = "STORAGE"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

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

// Fatal reports whether err is one of the placement failures that no retry
// can fix: the rack is full or the engine broke an invariant.
func Fatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeCapacityExceeded, ErrCodePlacementInvariant:
		return true
	}
	return false
}
