package entities

import "errors"

// Domain errors
var (
	// Device errors
	ErrUnknownDeviceKind = errors.New("unknown device kind")
	ErrDeviceNotFound    = errors.New("device not found")

	// Timeline errors
	ErrTimelineClosed   = errors.New("timeline closed")
	ErrEmptyMessage     = errors.New("empty message")
	ErrUnsupportedLang  = errors.New("unsupported language")
	ErrParticipantEmpty = errors.New("participant id is empty")

	// Capture errors
	ErrUnknownSource = errors.New("capture source not offered by host")
)
