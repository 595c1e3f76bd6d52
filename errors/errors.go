package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"time"
)

// AppError là custom error type cho application
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the collaborator error
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// Is matches AppErrors by code so errors.Is(err, ErrShareCancelled(nil)) works
func (e AppError) Is(target error) bool {
	t, ok := target.(AppError)
	return ok && t.Code == e.Code
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code ErrorCode) bool {
	var appErr AppError
	if !stdErrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusInternalServerError,
		Code:      ErrorCode_INTERNAL,
		Message:   "Internal server error",
		Timestamp: time.Now(),
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode:  http.StatusBadRequest,
		Code:      ErrorCode_INVALID_ARGUMENT,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode:  http.StatusNotFound,
		Code:      ErrorCode_NOT_FOUND,
		Message:   fmt.Sprintf("%s not found", resource),
		Timestamp: time.Now(),
	}
}

func ErrSessionEnded() AppError {
	return AppError{
		HTTPCode:  http.StatusConflict,
		Code:      ErrorCode_SESSION_ENDED,
		Message:   "Session has ended",
		Timestamp: time.Now(),
	}
}

func ErrSessionStarting() AppError {
	return AppError{
		HTTPCode:  http.StatusServiceUnavailable,
		Code:      ErrorCode_SESSION_STARTING,
		Message:   "Session is still starting",
		Timestamp: time.Now(),
	}
}

// ErrConflict reports an action that does not fit the current state
func ErrConflict(err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusConflict,
		Code:      ErrorCode_CONFLICT,
		Message:   "Request conflicts with the current state",
		Timestamp: time.Now(),
	}
}

// Device Errors

// ErrPermissionDenied is non-fatal: enumeration continues with placeholder labels
func ErrPermissionDenied(action string, err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusForbidden,
		Code:      ErrorCode_PERMISSION_DENIED,
		Message:   fmt.Sprintf("Permission denied: %s", action),
		Timestamp: time.Now(),
	}
}

func ErrDeviceSwitchFailed(kind, deviceID string, err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusBadGateway,
		Code:      ErrorCode_DEVICE_SWITCH_FAILED,
		Message:   "Failed to switch device",
		Timestamp: time.Now(),
	}.WithDetail("kind", kind).
		WithDetail("device_id", deviceID)
}

// Screen Share Errors

// ErrShareCancelled is informational, the user backed out of the picker or prompt
func ErrShareCancelled(err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusOK,
		Code:      ErrorCode_SHARE_CANCELLED,
		Message:   "Screen share cancelled",
		Timestamp: time.Now(),
	}
}

func ErrShareFailed(err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusBadGateway,
		Code:      ErrorCode_SHARE_FAILED,
		Message:   "Failed to start screen share",
		Timestamp: time.Now(),
	}
}

// Record Errors
func ErrRecordPersistFailed(recordID string, err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusServiceUnavailable,
		Code:      ErrorCode_RECORD_PERSIST_FAILED,
		Message:   "Failed to persist meeting record",
		Timestamp: time.Now(),
	}.WithDetail("record_id", recordID)
}

// Integration Errors
func ErrTransportFailed(operation string, err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusBadGateway,
		Code:      ErrorCode_INTEGRATION_TRANSPORT_FAILED,
		Message:   fmt.Sprintf("Transport operation failed: %s", operation),
		Timestamp: time.Now(),
	}
}

func ErrHostFailed(operation string, err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusBadGateway,
		Code:      ErrorCode_INTEGRATION_HOST_FAILED,
		Message:   fmt.Sprintf("Host bridge operation failed: %s", operation),
		Timestamp: time.Now(),
	}
}

func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusInternalServerError,
		Code:      ErrorCode_INTEGRATION_STORAGE_FAILED,
		Message:   fmt.Sprintf("Storage operation failed: %s", operation),
		Timestamp: time.Now(),
	}
}

func ErrCacheFailed(operation string, err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusInternalServerError,
		Code:      ErrorCode_INTEGRATION_CACHE_FAILED,
		Message:   fmt.Sprintf("Cache operation failed: %s", operation),
		Timestamp: time.Now(),
	}
}

// Database Errors
func ErrDBQueryFailed(query string, err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusInternalServerError,
		Code:      ErrorCode_DB_QUERY_FAILED,
		Message:   "Database query failed",
		Timestamp: time.Now(),
	}.WithDetail("query", query)
}
