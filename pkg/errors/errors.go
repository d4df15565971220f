package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Precondition errors
	ErrTargetExists ErrorCode = "TARGET_EXISTS"

	// Manifest errors
	ErrManifestRead  ErrorCode = "MANIFEST_READ"
	ErrManifestParse ErrorCode = "MANIFEST_PARSE"

	// Resolution errors
	ErrUnresolved       ErrorCode = "UNRESOLVED"
	ErrStoreEntryAbsent ErrorCode = "STORE_ENTRY_ABSENT"
	ErrBadVersion       ErrorCode = "BAD_VERSION"
	ErrBadRange         ErrorCode = "BAD_RANGE"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrFileCopy   ErrorCode = "FILE_COPY"
	ErrDirCreate  ErrorCode = "DIR_CREATE"
)

// HoistError represents a structured error with code and details
type HoistError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *HoistError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *HoistError) Unwrap() error {
	return e.Wrapped
}

// Is matches on error code so sentinel comparisons survive wrapping
func (e *HoistError) Is(target error) bool {
	var targetErr *HoistError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new HoistError with the given code and message
func New(code ErrorCode, message string) *HoistError {
	return &HoistError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new HoistError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *HoistError {
	return &HoistError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a HoistError
func Wrap(err error, code ErrorCode, message string) *HoistError {
	if err == nil {
		return nil
	}
	return &HoistError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *HoistError {
	if err == nil {
		return nil
	}
	return &HoistError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *HoistError) WithDetail(key string, value interface{}) *HoistError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var hoistErr *HoistError
	if errors.As(err, &hoistErr) {
		return hoistErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a HoistError
func GetErrorCode(err error) ErrorCode {
	var hoistErr *HoistError
	if errors.As(err, &hoistErr) {
		return hoistErr.Code
	}
	return ErrUnknown
}
