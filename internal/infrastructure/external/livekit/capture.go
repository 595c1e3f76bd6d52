package livekit

import (
	"context"
	"time"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
)

// SampleSink receives encoded media samples for a published track
type SampleSink interface {
	WriteSample(data []byte, duration time.Duration) error
}

// Capturer feeds a published local track from a capture device. For screen
// shares deviceID is the host selected source, or empty when the capturer
// has to prompt on its own. The returned func stops the capture.
type Capturer interface {
	Start(ctx context.Context, source entities.TrackSource, deviceID string, sink SampleSink) (stop func(), err error)
}

// NopCapturer publishes tracks without media. It is used when an external
// media engine attaches to the published tracks.
type NopCapturer struct{}

// Start implements Capturer
func (NopCapturer) Start(context.Context, entities.TrackSource, string, SampleSink) (func(), error) {
	return func() {}, nil
}
