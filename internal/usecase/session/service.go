package session

import (
	"context"
	"time"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/usecase/track"
)

// Service defines the interface for the live session use case
type Service interface {
	// Run drives the session until it ends, the transport disconnects or ctx is done
	Run(ctx context.Context) error

	// State returns a snapshot of the session
	State(ctx context.Context) (View, error)

	// RefreshDevices re-enumerates devices, e.g. when the settings panel opens
	RefreshDevices(ctx context.Context) error

	// SelectDevice switches the transport to another device of the same kind
	SelectDevice(ctx context.Context, kind entities.DeviceKind, deviceID string) error

	SetMicrophoneEnabled(ctx context.Context, enabled bool) error
	SetCameraEnabled(ctx context.Context, enabled bool) error

	// ToggleShare starts or stops screen sharing
	ToggleShare(ctx context.Context) (ShareView, error)

	// SelectShareSource commits a source offered by the host picker
	SelectShareSource(ctx context.Context, sourceID string) (ShareView, error)

	// CancelSharePicker closes the host picker without sharing
	CancelSharePicker(ctx context.Context) (ShareView, error)

	SendChat(ctx context.Context, body string, attachment *entities.Attachment) (entities.ChatMessage, error)
	AddTranslation(ctx context.Context, entry entities.TranslationEntry) (entities.TranslationEntry, error)
	AddTerm(ctx context.Context, term entities.TermExplanation) (entities.TermExplanation, error)

	// End finalizes the session and returns the meeting record
	End(ctx context.Context) (*entities.MeetingRecord, error)

	// RetryRecord persists a record whose first append failed
	RetryRecord(ctx context.Context) (*entities.MeetingRecord, error)

	// Notices streams problems surfaced to the user. Closed when the session ends.
	Notices() <-chan Notice

	// Done is closed once the session has ended and the record was handed to persistence
	Done() <-chan struct{}
}

// NoticeLevel separates informational notices from errors
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a problem surfaced to the user
type Notice struct {
	Level NoticeLevel
	Err   error
	At    time.Time
}

// NoticeView is the serializable form of a Notice
type NoticeView struct {
	Level   NoticeLevel `json:"level"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

// ShareView describes the screen share negotiation
type ShareView struct {
	State    string                   `json:"state"`
	Sharing  bool                     `json:"sharing"`
	SourceID string                   `json:"source_id,omitempty"`
	Sources  []entities.CaptureSource `json:"sources"`
}

// View is a snapshot of the whole session
type View struct {
	RoomName           string                      `json:"room_name"`
	LocalParticipantID string                      `json:"local_participant_id"`
	Devices            entities.DeviceLists        `json:"devices"`
	Selection          entities.DeviceSelection    `json:"selection"`
	MicrophoneEnabled  bool                        `json:"microphone_enabled"`
	CameraEnabled      bool                        `json:"camera_enabled"`
	Share              ShareView                   `json:"share"`
	Tracks             track.Composition           `json:"tracks"`
	Roster             []entities.Participant      `json:"roster"`
	Chat               []entities.ChatMessage      `json:"chat"`
	Translations       []entities.TranslationEntry `json:"translations"`
	Terms              []entities.TermExplanation  `json:"terms"`
	ElapsedSeconds     int                         `json:"elapsed_seconds"`
	Duration           string                      `json:"duration"`
	Notices            []NoticeView                `json:"notices"`
	Ended              bool                        `json:"ended"`
	RecordID           string                      `json:"record_id,omitempty"`
	RecordPending      bool                        `json:"record_pending"`
}
