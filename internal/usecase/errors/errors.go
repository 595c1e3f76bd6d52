package errors

import "errors"

// Common errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("resource not found")
	ErrInternalError = errors.New("internal server error")
)

// Session errors
var (
	ErrSessionEnded      = errors.New("session has ended")
	ErrSessionNotStarted = errors.New("session loop is not running")
)

// Device errors
var (
	ErrDeviceNotEnumerated = errors.New("devices have not been enumerated yet")
	ErrUnknownDevice       = errors.New("device is not in the current device list")
)

// Screen share errors
var (
	ErrPickerNotOpen    = errors.New("screen share picker is not open")
	ErrShareUnavailable = errors.New("screen share cannot be toggled in the current state")
)

// Record errors
var (
	ErrRecordNotFound   = errors.New("meeting record not found")
	ErrNoPendingRecord  = errors.New("no pending meeting record")
	ErrAlreadyRecorded  = errors.New("meeting record already created for this session")
	ErrRecordInProgress = errors.New("meeting record is being persisted")
)
