package gateways

import (
	"context"
	"errors"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
)

// ErrCaptureDenied is returned by SetScreenShareEnabled when the platform or the
// user refused the native share prompt
var ErrCaptureDenied = errors.New("screen capture denied")

// Data packet topics
const (
	TopicChat        = "chat"
	TopicTranslation = "translation"
	TopicTerm        = "term"
)

// TransportEventKind identifies a notification from the transport
type TransportEventKind int

const (
	TransportTracksChanged TransportEventKind = iota
	TransportParticipantJoined
	TransportParticipantLeft
	TransportMuteChanged
	TransportDataReceived
	TransportDisconnected
)

func (k TransportEventKind) String() string {
	switch k {
	case TransportTracksChanged:
		return "tracks_changed"
	case TransportParticipantJoined:
		return "participant_joined"
	case TransportParticipantLeft:
		return "participant_left"
	case TransportMuteChanged:
		return "mute_changed"
	case TransportDataReceived:
		return "data_received"
	case TransportDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// TransportEvent is delivered on Transport.Events
type TransportEvent struct {
	Kind TransportEventKind

	// Participant is set for join, leave and mute events
	Participant entities.Participant

	// Topic and Payload are set for data events
	Topic   string
	Payload []byte

	// Err carries the disconnect reason, if any
	Err error
}

// Transport is the live audio/video conferencing engine
type Transport interface {
	LocalParticipantID() string
	Tracks() []entities.TrackRef
	Participants() []entities.Participant

	// ScreenShareEnabled is the authoritative screen share state
	ScreenShareEnabled() bool

	SwitchDevice(ctx context.Context, kind entities.DeviceKind, deviceID string) error
	SetMicrophoneEnabled(ctx context.Context, enabled bool) error
	SetCameraEnabled(ctx context.Context, enabled bool) error
	SetScreenShareEnabled(ctx context.Context, enabled bool, opts entities.ScreenShareOptions) error

	// SendChat publishes a chat message to the other participants
	SendChat(ctx context.Context, msg entities.ChatMessage) error

	Events() <-chan TransportEvent
	Disconnect()
}
