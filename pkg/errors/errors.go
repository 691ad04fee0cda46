// Package errors provides structured error types for amrraster.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the library packages
//   - Machine-readable error codes for programmatic handling
//   - Reporting of the offending frame index and AMR level
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (bad overrides, flags, settings)
//   - MISSING_*: Expected solver output is absent
//   - CORRUPT_FRAME, LEVEL_NOT_FOUND, NON_MONOTONIC_TIME: solver output is inconsistent
//   - EMPTY_RANGE: the requested frame range has nothing to rasterize
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidExtent, "xmin %g >= xmax %g", xmin, xmax)
//	if errors.Is(err, errors.ErrCodeInvalidExtent) {
//	    // Handle validation error
//	}
//
//	// Frame-scoped errors carry the frame index
//	err := errors.MissingFrame(12, origErr)
//	var fe *errors.FrameError
//	if stderrors.As(err, &fe) {
//	    fmt.Println(fe.Frame)
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidExtent     Code = "INVALID_EXTENT"
	ErrCodeInvalidResolution Code = "INVALID_RESOLUTION"
	ErrCodeInvalidLevel      Code = "INVALID_LEVEL"
	ErrCodeInvalidSettings   Code = "INVALID_SETTINGS"
	ErrCodeInvalidPath       Code = "INVALID_PATH"

	// Solver output errors
	ErrCodeMissingFrame     Code = "MISSING_FRAME"
	ErrCodeMissingMetadata  Code = "MISSING_METADATA"
	ErrCodeCorruptFrame     Code = "CORRUPT_FRAME"
	ErrCodeCorruptMetadata  Code = "CORRUPT_METADATA"
	ErrCodeLevelNotFound    Code = "LEVEL_NOT_FOUND"
	ErrCodeNonMonotonicTime Code = "NON_MONOTONIC_TIME"
	ErrCodeEmptyRange       Code = "EMPTY_RANGE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// coder is implemented by every error type in this package.
type coder interface {
	ErrorCode() Code
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

// ErrorCode returns the machine-readable code.
func (e *Error) ErrorCode() Code {
	return e.Code
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
// It unwraps the error chain looking for the first error carrying a code.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	var c coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For coded errors, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe.describe()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// NoLevel marks a FrameError that is not tied to a specific AMR level.
const NoLevel = -1

// FrameError reports a failure attributable to one solution frame.
// Level is NoLevel when the failure is not level specific.
type FrameError struct {
	Code    Code
	Frame   int
	Level   int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *FrameError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.describe(), e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.describe())
}

func (e *FrameError) describe() string {
	if e.Level != NoLevel {
		return fmt.Sprintf("frame %d, level %d: %s", e.Frame, e.Level, e.Message)
	}
	return fmt.Sprintf("frame %d: %s", e.Frame, e.Message)
}

// Unwrap returns the underlying cause.
func (e *FrameError) Unwrap() error {
	return e.Cause
}

// ErrorCode returns the machine-readable code.
func (e *FrameError) ErrorCode() Code {
	return e.Code
}

// MissingFrame reports that the files of a frame are absent.
func MissingFrame(frame int, cause error) *FrameError {
	return &FrameError{
		Code:    ErrCodeMissingFrame,
		Frame:   frame,
		Level:   NoLevel,
		Message: "solution files not found",
		Cause:   cause,
	}
}

// CorruptFrame reports inconsistent patch geometry or array sizes.
func CorruptFrame(frame int, format string, args ...any) *FrameError {
	return &FrameError{
		Code:    ErrCodeCorruptFrame,
		Frame:   frame,
		Level:   NoLevel,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapCorruptFrame is CorruptFrame with an underlying cause.
func WrapCorruptFrame(frame int, cause error, format string, args ...any) *FrameError {
	e := CorruptFrame(frame, format, args...)
	e.Cause = cause
	return e
}

// LevelNotFound reports that a frame has no patch at the requested level.
func LevelNotFound(frame, level int, available []int) *FrameError {
	return &FrameError{
		Code:    ErrCodeLevelNotFound,
		Frame:   frame,
		Level:   level,
		Message: fmt.Sprintf("no patch at requested level (available: %v)", available),
	}
}

// NonMonotonicTime reports a frame whose time does not exceed its predecessor's.
func NonMonotonicTime(frame int, prev, got float64) *FrameError {
	return &FrameError{
		Code:    ErrCodeNonMonotonicTime,
		Frame:   frame,
		Level:   NoLevel,
		Message: fmt.Sprintf("time %g does not increase past previous frame time %g", got, prev),
	}
}

// EmptyRange reports a frame range with nothing to rasterize.
func EmptyRange(bg, ed int, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeEmptyRange,
		Message: fmt.Sprintf("frames [%d, %d): ", bg, ed) + fmt.Sprintf(format, args...),
	}
}

// FrameOf returns the frame index recorded in err, if any.
func FrameOf(err error) (int, bool) {
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe.Frame, true
	}
	return 0, false
}
