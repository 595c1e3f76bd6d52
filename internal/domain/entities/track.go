package entities

// TrackSource is the capture source a published track originates from
type TrackSource string

const (
	TrackSourceCamera      TrackSource = "camera"
	TrackSourceScreenShare TrackSource = "screen_share"
	TrackSourceMicrophone  TrackSource = "microphone"
	TrackSourceUnknown     TrackSource = "unknown"
)

// SubscriptionState represents whether the local client receives a track
type SubscriptionState string

const (
	SubscriptionSubscribed   SubscriptionState = "subscribed"
	SubscriptionUnsubscribed SubscriptionState = "unsubscribed"
	SubscriptionPending      SubscriptionState = "pending"
)

// TrackRef references one published track in the room
type TrackRef struct {
	SID           string            `json:"sid"`
	ParticipantID string            `json:"participant_id"`
	Local         bool              `json:"local"`
	Source        TrackSource       `json:"source"`
	Subscription  SubscriptionState `json:"subscription"`
	Muted         bool              `json:"muted"`
}

// IsVideo reports whether the track carries a video source
func (t TrackRef) IsVideo() bool {
	return t.Source == TrackSourceCamera || t.Source == TrackSourceScreenShare
}

// ScreenShareOptions configures a screen share started at the transport
type ScreenShareOptions struct {
	// SourceID is the host-selected capture source, empty when the transport prompts natively
	SourceID string `json:"source_id,omitempty"`
	Audio    bool   `json:"audio"`
}

// CaptureSource is one entry of the host capture picker
type CaptureSource struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Thumbnail   string `json:"thumbnail,omitempty"` // data URL
}
