package livekit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/domain/gateways"
)

// roomConn is the part of a connected LiveKit room the transport needs
type roomConn interface {
	LocalIdentity() string
	RemoteParticipants() []remoteParticipant
	Publish(source entities.TrackSource) (localPublication, error)
	PublishData(topic string, payload []byte) error
	Disconnect()
}

// localPublication is one track published by the local participant
type localPublication interface {
	SID() string
	SetMuted(muted bool)
	WriteSample(data []byte, duration time.Duration) error
	Unpublish() error
}

// remoteParticipant is a point-in-time view of a remote participant
type remoteParticipant struct {
	Participant entities.Participant
	Tracks      []entities.TrackRef
}

type localTrack struct {
	pub      localPublication
	deviceID string
	stop     func()
	muted    bool
}

// Transport is a gateways.Transport backed by a LiveKit room
type Transport struct {
	conn     roomConn
	capturer Capturer
	logger   *zap.Logger

	mu      sync.Mutex
	local   map[entities.TrackSource]*localTrack
	devices map[entities.DeviceKind]string
	joined  map[string]time.Time

	events    chan gateways.TransportEvent
	closed    chan struct{}
	closeOnce sync.Once
}

var _ gateways.Transport = (*Transport)(nil)

func newTransport(capturer Capturer, logger *zap.Logger) *Transport {
	if capturer == nil {
		capturer = NopCapturer{}
	}
	return &Transport{
		capturer: capturer,
		logger:   logger,
		local:    make(map[entities.TrackSource]*localTrack),
		devices:  make(map[entities.DeviceKind]string),
		joined:   make(map[string]time.Time),
		events:   make(chan gateways.TransportEvent, 256),
		closed:   make(chan struct{}),
	}
}

// LocalParticipantID implements gateways.Transport
func (t *Transport) LocalParticipantID() string {
	return t.conn.LocalIdentity()
}

// Participants returns the remote participants currently in the room
func (t *Transport) Participants() []entities.Participant {
	remotes := t.conn.RemoteParticipants()
	out := make([]entities.Participant, 0, len(remotes))
	for _, rp := range remotes {
		out = append(out, t.withJoinTime(rp.Participant))
	}
	return out
}

// withJoinTime stamps p with the time it was first seen
func (t *Transport) withJoinTime(p entities.Participant) entities.Participant {
	if !p.JoinedAt.IsZero() {
		return p
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	joined, ok := t.joined[p.ID]
	if !ok {
		joined = time.Now()
		t.joined[p.ID] = joined
	}
	p.JoinedAt = joined
	return p
}

// Tracks returns local publications followed by remote tracks ordered by participant
func (t *Transport) Tracks() []entities.TrackRef {
	localID := t.conn.LocalIdentity()

	t.mu.Lock()
	tracks := make([]entities.TrackRef, 0, len(t.local))
	for source, lt := range t.local {
		tracks = append(tracks, entities.TrackRef{
			SID:           lt.pub.SID(),
			ParticipantID: localID,
			Local:         true,
			Source:        source,
			Subscription:  entities.SubscriptionSubscribed,
			Muted:         lt.muted,
		})
	}
	t.mu.Unlock()
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Source < tracks[j].Source })

	remotes := t.conn.RemoteParticipants()
	sort.Slice(remotes, func(i, j int) bool { return remotes[i].Participant.ID < remotes[j].Participant.ID })
	for _, rp := range remotes {
		tracks = append(tracks, rp.Tracks...)
	}
	return tracks
}

// ScreenShareEnabled reports whether a local screen share track is published
func (t *Transport) ScreenShareEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.local[entities.TrackSourceScreenShare]
	return ok
}

// SwitchDevice moves the capture of kind to deviceID. A published track is
// restarted on the new device. Speakers are routed by the media engine, the
// choice is only remembered.
func (t *Transport) SwitchDevice(ctx context.Context, kind entities.DeviceKind, deviceID string) error {
	if !kind.IsValid() {
		return entities.ErrUnknownDeviceKind
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	source, captured := sourceForKind(kind)
	if captured {
		if lt, ok := t.local[source]; ok && lt.deviceID != deviceID {
			stop, err := t.capturer.Start(ctx, source, deviceID, lt.pub)
			if err != nil {
				return fmt.Errorf("failed to start %s capture on %s: %w", source, deviceID, err)
			}
			lt.stop()
			lt.stop = stop
			lt.deviceID = deviceID
		}
	}
	t.devices[kind] = deviceID
	return nil
}

// SetMicrophoneEnabled publishes the microphone on first use and mutes it afterwards
func (t *Transport) SetMicrophoneEnabled(ctx context.Context, enabled bool) error {
	t.mu.Lock()
	lt, ok := t.local[entities.TrackSourceMicrophone]
	if ok {
		lt.pub.SetMuted(!enabled)
		lt.muted = !enabled
		t.mu.Unlock()
		t.emit(gateways.TransportEvent{Kind: gateways.TransportTracksChanged})
		return nil
	}
	t.mu.Unlock()

	if !enabled {
		return nil
	}
	return t.publish(ctx, entities.TrackSourceMicrophone, t.device(entities.DeviceKindAudioInput))
}

// SetCameraEnabled publishes or unpublishes the camera track
func (t *Transport) SetCameraEnabled(ctx context.Context, enabled bool) error {
	if enabled {
		return t.publish(ctx, entities.TrackSourceCamera, t.device(entities.DeviceKindVideoInput))
	}
	return t.unpublish(entities.TrackSourceCamera)
}

// SetScreenShareEnabled publishes a screen share. Without a host selected
// source the capturer acts as the native prompt and may return
// gateways.ErrCaptureDenied.
func (t *Transport) SetScreenShareEnabled(ctx context.Context, enabled bool, opts entities.ScreenShareOptions) error {
	if enabled {
		return t.publish(ctx, entities.TrackSourceScreenShare, opts.SourceID)
	}
	return t.unpublish(entities.TrackSourceScreenShare)
}

func (t *Transport) device(kind entities.DeviceKind) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.devices[kind]
}

func (t *Transport) publish(ctx context.Context, source entities.TrackSource, deviceID string) error {
	t.mu.Lock()
	if _, ok := t.local[source]; ok {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	pub, err := t.conn.Publish(source)
	if err != nil {
		return fmt.Errorf("failed to publish %s track: %w", source, err)
	}

	stop, err := t.capturer.Start(ctx, source, deviceID, pub)
	if err != nil {
		if uerr := pub.Unpublish(); uerr != nil && t.logger != nil {
			t.logger.Warn("failed to unpublish track after capture error", zap.Error(uerr))
		}
		return err
	}

	t.mu.Lock()
	t.local[source] = &localTrack{pub: pub, deviceID: deviceID, stop: stop}
	t.mu.Unlock()

	if t.logger != nil {
		t.logger.Info("track published",
			zap.String("source", string(source)),
			zap.String("sid", pub.SID()),
			zap.String("device_id", deviceID),
		)
	}
	t.emit(gateways.TransportEvent{Kind: gateways.TransportTracksChanged})
	return nil
}

func (t *Transport) unpublish(source entities.TrackSource) error {
	t.mu.Lock()
	lt, ok := t.local[source]
	if !ok {
		t.mu.Unlock()
		return nil
	}
	delete(t.local, source)
	t.mu.Unlock()

	lt.stop()
	err := lt.pub.Unpublish()
	t.emit(gateways.TransportEvent{Kind: gateways.TransportTracksChanged})
	if err != nil {
		return fmt.Errorf("failed to unpublish %s track: %w", source, err)
	}
	return nil
}

// SendChat publishes msg on the chat topic
func (t *Transport) SendChat(ctx context.Context, msg entities.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode chat message: %w", err)
	}
	if err := t.conn.PublishData(gateways.TopicChat, payload); err != nil {
		return fmt.Errorf("failed to publish chat message: %w", err)
	}
	return nil
}

// Events implements gateways.Transport
func (t *Transport) Events() <-chan gateways.TransportEvent {
	return t.events
}

// Disconnect stops every capture and leaves the room
func (t *Transport) Disconnect() {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		for source, lt := range t.local {
			lt.stop()
			delete(t.local, source)
		}
		t.mu.Unlock()

		close(t.closed)
		t.conn.Disconnect()
	})
}

// emit delivers ev unless the transport was disconnected
func (t *Transport) emit(ev gateways.TransportEvent) {
	select {
	case <-t.closed:
		return
	default:
	}
	select {
	case t.events <- ev:
	case <-t.closed:
	}
}

// Room notifications

func (t *Transport) onParticipantJoined(p entities.Participant) {
	t.emit(gateways.TransportEvent{Kind: gateways.TransportParticipantJoined, Participant: t.withJoinTime(p)})
}

func (t *Transport) onParticipantLeft(p entities.Participant) {
	t.mu.Lock()
	delete(t.joined, p.ID)
	t.mu.Unlock()
	t.emit(gateways.TransportEvent{Kind: gateways.TransportParticipantLeft, Participant: p})
	t.emit(gateways.TransportEvent{Kind: gateways.TransportTracksChanged})
}

func (t *Transport) onTracksChanged() {
	t.emit(gateways.TransportEvent{Kind: gateways.TransportTracksChanged})
}

func (t *Transport) onMuteChanged(p entities.Participant) {
	t.emit(gateways.TransportEvent{Kind: gateways.TransportMuteChanged, Participant: p})
	t.emit(gateways.TransportEvent{Kind: gateways.TransportTracksChanged})
}

func (t *Transport) onData(sender, topic string, payload []byte) {
	t.emit(gateways.TransportEvent{
		Kind:        gateways.TransportDataReceived,
		Participant: entities.Participant{ID: sender},
		Topic:       topic,
		Payload:     payload,
	})
}

func (t *Transport) onDisconnected(err error) {
	ev := gateways.TransportEvent{Kind: gateways.TransportDisconnected, Err: err}
	select {
	case t.events <- ev:
	case <-t.closed:
	}
}

// sourceForKind maps capture device classes to the track they feed
func sourceForKind(kind entities.DeviceKind) (entities.TrackSource, bool) {
	switch kind {
	case entities.DeviceKindAudioInput:
		return entities.TrackSourceMicrophone, true
	case entities.DeviceKindVideoInput:
		return entities.TrackSourceCamera, true
	default:
		return "", false
	}
}
