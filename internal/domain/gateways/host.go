package gateways

import (
	"context"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
)

// PickerRequest is sent by the host process when its capture picker opens
type PickerRequest struct {
	Sources []entities.CaptureSource `json:"sources"`
}

// HostBridge talks to the outer process that owns OS level capture enumeration.
// It is resolved once at startup.
type HostBridge interface {
	Available() bool

	// Subscribe registers the handler for picker requests. The returned func
	// removes it.
	Subscribe(handler func(PickerRequest)) func()

	// OpenPicker asks the host to show its capture picker
	OpenPicker(ctx context.Context) error

	// SelectSource commits the chosen source. An empty id aborts the picker.
	SelectSource(ctx context.Context, sourceID string) error
}

// NoHostBridge is used when no host process is attached
type NoHostBridge struct{}

func (NoHostBridge) Available() bool { return false }

func (NoHostBridge) Subscribe(func(PickerRequest)) func() { return func() {} }

func (NoHostBridge) OpenPicker(context.Context) error { return nil }

func (NoHostBridge) SelectSource(context.Context, string) error { return nil }
