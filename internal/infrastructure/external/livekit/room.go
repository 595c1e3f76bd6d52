package livekit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	livekit "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
)

var errRoomDisconnected = errors.New("livekit room disconnected")

// participantMetadata is the JSON metadata clients attach to their participant
type participantMetadata struct {
	Language string `json:"language"`
}

// Connect joins the room granted by token and returns a transport bound to it
func Connect(url, token string, capturer Capturer, logger *zap.Logger) (*Transport, error) {
	t := newTransport(capturer, logger)

	room, err := lksdk.ConnectToRoomWithToken(url, token, t.callback(), lksdk.WithAutoSubscribe(true))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to room: %w", err)
	}
	t.conn = &lkRoom{room: room}

	if logger != nil {
		logger.Info("joined livekit room",
			zap.String("room", room.Name()),
			zap.String("identity", room.LocalParticipant.Identity()),
		)
	}
	return t, nil
}

func (t *Transport) callback() *lksdk.RoomCallback {
	return &lksdk.RoomCallback{
		ParticipantCallback: lksdk.ParticipantCallback{
			OnTrackPublished: func(*lksdk.RemoteTrackPublication, *lksdk.RemoteParticipant) {
				t.onTracksChanged()
			},
			OnTrackUnpublished: func(*lksdk.RemoteTrackPublication, *lksdk.RemoteParticipant) {
				t.onTracksChanged()
			},
			OnTrackSubscribed: func(*webrtc.TrackRemote, *lksdk.RemoteTrackPublication, *lksdk.RemoteParticipant) {
				t.onTracksChanged()
			},
			OnTrackUnsubscribed: func(*webrtc.TrackRemote, *lksdk.RemoteTrackPublication, *lksdk.RemoteParticipant) {
				t.onTracksChanged()
			},
			OnTrackMuted: func(_ lksdk.TrackPublication, p lksdk.Participant) {
				t.onMuteChanged(toParticipant(p))
			},
			OnTrackUnmuted: func(_ lksdk.TrackPublication, p lksdk.Participant) {
				t.onMuteChanged(toParticipant(p))
			},
			OnDataPacket: func(data lksdk.DataPacket, params lksdk.DataReceiveParams) {
				if packet, ok := data.(*lksdk.UserDataPacket); ok {
					t.onData(params.SenderIdentity, packet.Topic, packet.Payload)
				}
			},
		},
		OnParticipantConnected: func(rp *lksdk.RemoteParticipant) {
			t.onParticipantJoined(toParticipant(rp))
		},
		OnParticipantDisconnected: func(rp *lksdk.RemoteParticipant) {
			t.onParticipantLeft(toParticipant(rp))
		},
		OnDisconnected: func() {
			t.onDisconnected(errRoomDisconnected)
		},
	}
}

// lkRoom adapts *lksdk.Room to roomConn
type lkRoom struct {
	room *lksdk.Room
}

func (r *lkRoom) LocalIdentity() string {
	return r.room.LocalParticipant.Identity()
}

func (r *lkRoom) RemoteParticipants() []remoteParticipant {
	remotes := r.room.GetRemoteParticipants()
	out := make([]remoteParticipant, 0, len(remotes))
	for _, rp := range remotes {
		view := remoteParticipant{Participant: toParticipant(rp)}
		for _, pub := range rp.TrackPublications() {
			view.Tracks = append(view.Tracks, toTrackRef(rp.Identity(), pub))
		}
		out = append(out, view)
	}
	return out
}

func (r *lkRoom) Publish(source entities.TrackSource) (localPublication, error) {
	track, err := lksdk.NewLocalTrack(codecFor(source))
	if err != nil {
		return nil, fmt.Errorf("failed to create local track: %w", err)
	}

	pub, err := r.room.LocalParticipant.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name:   string(source),
		Source: toLKSource(source),
	})
	if err != nil {
		return nil, err
	}

	return &lkPublication{participant: r.room.LocalParticipant, track: track, pub: pub}, nil
}

func (r *lkRoom) PublishData(topic string, payload []byte) error {
	return r.room.LocalParticipant.PublishDataPacket(
		lksdk.UserData(payload),
		lksdk.WithDataPublishTopic(topic),
		lksdk.WithDataPublishReliable(true),
	)
}

func (r *lkRoom) Disconnect() {
	r.room.Disconnect()
}

// lkPublication adapts a published local track to localPublication
type lkPublication struct {
	participant *lksdk.LocalParticipant
	track       *lksdk.LocalTrack
	pub         *lksdk.LocalTrackPublication
}

func (p *lkPublication) SID() string { return p.pub.SID() }

func (p *lkPublication) SetMuted(muted bool) { p.pub.SetMuted(muted) }

func (p *lkPublication) WriteSample(data []byte, duration time.Duration) error {
	return p.track.WriteSample(media.Sample{Data: data, Duration: duration}, nil)
}

func (p *lkPublication) Unpublish() error {
	return p.participant.UnpublishTrack(p.pub.SID())
}

// codecFor returns the codec published for source: Opus for audio, VP8 for video
func codecFor(source entities.TrackSource) webrtc.RTPCodecCapability {
	if source == entities.TrackSourceMicrophone {
		return webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2}
	}
	return webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}
}

func toParticipant(p lksdk.Participant) entities.Participant {
	participant := entities.Participant{
		ID:          p.Identity(),
		DisplayName: p.Name(),
	}

	var meta participantMetadata
	if raw := p.Metadata(); raw != "" && json.Unmarshal([]byte(raw), &meta) == nil {
		participant.LanguageTag = meta.Language
	}

	for _, pub := range p.TrackPublications() {
		if pub.Source() == livekit.TrackSource_MICROPHONE {
			participant.Muted = pub.IsMuted()
		}
	}
	return participant
}

func toTrackRef(participantID string, pub lksdk.TrackPublication) entities.TrackRef {
	ref := entities.TrackRef{
		SID:           pub.SID(),
		ParticipantID: participantID,
		Source:        fromLKSource(pub.Source()),
		Subscription:  entities.SubscriptionUnsubscribed,
		Muted:         pub.IsMuted(),
	}
	if rpub, ok := pub.(*lksdk.RemoteTrackPublication); ok && rpub.IsSubscribed() {
		ref.Subscription = entities.SubscriptionSubscribed
		if rpub.TrackRemote() == nil {
			ref.Subscription = entities.SubscriptionPending
		}
	}
	return ref
}

func fromLKSource(source livekit.TrackSource) entities.TrackSource {
	switch source {
	case livekit.TrackSource_CAMERA:
		return entities.TrackSourceCamera
	case livekit.TrackSource_SCREEN_SHARE:
		return entities.TrackSourceScreenShare
	case livekit.TrackSource_MICROPHONE:
		return entities.TrackSourceMicrophone
	default:
		return entities.TrackSourceUnknown
	}
}

func toLKSource(source entities.TrackSource) livekit.TrackSource {
	switch source {
	case entities.TrackSourceCamera:
		return livekit.TrackSource_CAMERA
	case entities.TrackSourceScreenShare:
		return livekit.TrackSource_SCREEN_SHARE
	case entities.TrackSourceMicrophone:
		return livekit.TrackSource_MICROPHONE
	default:
		return livekit.TrackSource_UNKNOWN
	}
}
