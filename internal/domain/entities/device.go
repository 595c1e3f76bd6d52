package entities

import "fmt"

// DeviceKind represents the class of a media device
type DeviceKind string

const (
	DeviceKindAudioInput  DeviceKind = "audioinput"
	DeviceKindAudioOutput DeviceKind = "audiooutput"
	DeviceKindVideoInput  DeviceKind = "videoinput"
)

// DeviceKinds lists every device class in a stable order
var DeviceKinds = []DeviceKind{DeviceKindAudioInput, DeviceKindVideoInput, DeviceKindAudioOutput}

// IsValid reports whether k is one of the known device classes
func (k DeviceKind) IsValid() bool {
	switch k {
	case DeviceKindAudioInput, DeviceKindAudioOutput, DeviceKindVideoInput:
		return true
	}
	return false
}

// placeholderName is the label prefix used when the platform hides device labels
func (k DeviceKind) placeholderName() string {
	switch k {
	case DeviceKindAudioInput:
		return "Microphone"
	case DeviceKindVideoInput:
		return "Camera"
	case DeviceKindAudioOutput:
		return "Speaker"
	default:
		return "Device"
	}
}

// Device describes a single media device reported by the platform
type Device struct {
	ID    string     `json:"id"`
	Label string     `json:"label"`
	Kind  DeviceKind `json:"kind"`
}

// PlaceholderLabel returns the label shown for the n-th (1-based) device of a kind
// when the real label is not available
func PlaceholderLabel(kind DeviceKind, n int) string {
	return fmt.Sprintf("%s %d", kind.placeholderName(), n)
}

// DeviceLists holds the enumerated devices partitioned by kind
type DeviceLists struct {
	Mics     []Device `json:"mics"`
	Cameras  []Device `json:"cameras"`
	Speakers []Device `json:"speakers"`
}

// ForKind returns the list for the given kind
func (l DeviceLists) ForKind(kind DeviceKind) []Device {
	switch kind {
	case DeviceKindAudioInput:
		return l.Mics
	case DeviceKindVideoInput:
		return l.Cameras
	case DeviceKindAudioOutput:
		return l.Speakers
	default:
		return nil
	}
}

// Contains reports whether id is present in the list for kind
func (l DeviceLists) Contains(kind DeviceKind, id string) bool {
	for _, d := range l.ForKind(kind) {
		if d.ID == id {
			return true
		}
	}
	return false
}

// DeviceSelection is the active device per class. An empty id means unset,
// i.e. still pending the first enumeration or no device of that class exists.
type DeviceSelection struct {
	MicID     string `json:"mic_id"`
	CameraID  string `json:"camera_id"`
	SpeakerID string `json:"speaker_id"`
}

// Get returns the selected id for kind
func (s DeviceSelection) Get(kind DeviceKind) string {
	switch kind {
	case DeviceKindAudioInput:
		return s.MicID
	case DeviceKindVideoInput:
		return s.CameraID
	case DeviceKindAudioOutput:
		return s.SpeakerID
	default:
		return ""
	}
}

// With returns a copy of s with the id for kind replaced
func (s DeviceSelection) With(kind DeviceKind, id string) DeviceSelection {
	switch kind {
	case DeviceKindAudioInput:
		s.MicID = id
	case DeviceKindVideoInput:
		s.CameraID = id
	case DeviceKindAudioOutput:
		s.SpeakerID = id
	}
	return s
}
