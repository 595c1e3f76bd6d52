package gateways

import (
	"context"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
)

// DevicePlatform exposes the local media devices
type DevicePlatform interface {
	// Probe briefly opens a combined audio and video capture and releases it.
	// It unlocks device labels on platforms that hide them.
	Probe(ctx context.Context) error

	Enumerate(ctx context.Context) ([]entities.Device, error)

	// ActiveDevice returns the device the platform currently routes for kind
	ActiveDevice(kind entities.DeviceKind) (string, bool)

	// Watch calls onChange on every hot-plug notification until ctx is done
	Watch(ctx context.Context, onChange func()) error
}
