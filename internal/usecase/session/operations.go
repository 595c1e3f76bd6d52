package session

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-session/errors"
	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/domain/gateways"
	"github.com/johnquangdev/meeting-session/internal/usecase/capture"
	usecaseErrors "github.com/johnquangdev/meeting-session/internal/usecase/errors"
	"github.com/johnquangdev/meeting-session/internal/usecase/track"
	"go.uber.org/zap"
)

// Devices

// RefreshDevices implements Service
func (c *Controller) RefreshDevices(ctx context.Context) error {
	_, err := c.do(ctx, func() (any, error) {
		c.refreshDevices()
		return nil, nil
	})
	return err
}

// SelectDevice implements Service. The selection changes once the transport
// confirmed the switch.
func (c *Controller) SelectDevice(ctx context.Context, kind entities.DeviceKind, deviceID string) error {
	_, err := c.do(ctx, func() (any, error) {
		if !kind.IsValid() {
			return nil, entities.ErrUnknownDeviceKind
		}
		if !c.enumerated {
			return nil, usecaseErrors.ErrDeviceNotEnumerated
		}
		if !c.devices.Contains(kind, deviceID) {
			return nil, usecaseErrors.ErrUnknownDevice
		}
		c.switchDevice(kind, deviceID)
		return nil, nil
	})
	return err
}

func (c *Controller) refreshDevices() {
	c.deviceGen++
	gen := c.deviceGen

	c.spawn(func(ctx context.Context) func() {
		result, err := c.registry.Refresh(ctx)
		return func() {
			if gen != c.deviceGen {
				return
			}
			if err != nil {
				c.notify(errors.ErrInternal(err).WithDetail("operation", "enumerate devices"))
				return
			}
			c.notify(result.Warning)
			c.applyDevices(result.Lists)
		}
	})
}

// applyDevices stores a fresh enumeration, reconciles the selection and moves
// the transport to any device that changed
func (c *Controller) applyDevices(lists entities.DeviceLists) {
	c.devices = lists
	c.enumerated = true

	before := c.selection
	c.selection = c.registry.Reconcile(before, lists)
	if before != c.selection {
		c.savePreferences()
	}

	for _, kind := range entities.DeviceKinds {
		id := c.selection.Get(kind)
		changed := id != before.Get(kind)
		switch {
		case id == "":
			if changed {
				// nothing left to switch to, drop any switch still in flight
				c.switchGen[kind]++
			}
		case changed || id != c.applied[kind]:
			c.switchDevice(kind, id)
		}
	}
}

func (c *Controller) switchDevice(kind entities.DeviceKind, deviceID string) {
	c.switchGen[kind]++
	gen := c.switchGen[kind]

	c.spawn(func(ctx context.Context) func() {
		err := c.transport.SwitchDevice(ctx, kind, deviceID)
		return func() {
			if gen != c.switchGen[kind] {
				return
			}
			if err != nil {
				c.notify(errors.ErrDeviceSwitchFailed(string(kind), deviceID, err))
				return
			}
			c.applied[kind] = deviceID
			if !c.devices.Contains(kind, deviceID) {
				// unplugged while switching, move back to the selection
				if c.logger != nil {
					c.logger.Warn("switched device is gone",
						zap.String("kind", string(kind)),
						zap.String("device_id", deviceID),
					)
				}
				if sel := c.selection.Get(kind); sel != "" {
					c.switchDevice(kind, sel)
				}
				return
			}
			if c.selection.Get(kind) != deviceID {
				c.selection = c.selection.With(kind, deviceID)
				c.savePreferences()
			}
		}
	})
}

func (c *Controller) savePreferences() {
	if c.prefs == nil {
		return
	}
	selection := c.selection
	c.spawn(func(ctx context.Context) func() {
		err := c.prefs.Save(ctx, c.cfg.UserID, selection)
		return func() {
			if err != nil && c.logger != nil {
				c.logger.Warn("failed to save device preferences", zap.Error(err))
			}
		}
	})
}

// SetMicrophoneEnabled implements Service
func (c *Controller) SetMicrophoneEnabled(ctx context.Context, enabled bool) error {
	_, err := c.do(ctx, func() (any, error) {
		c.setMicrophone(enabled)
		return nil, nil
	})
	return err
}

// SetCameraEnabled implements Service
func (c *Controller) SetCameraEnabled(ctx context.Context, enabled bool) error {
	_, err := c.do(ctx, func() (any, error) {
		c.setCamera(enabled)
		return nil, nil
	})
	return err
}

func (c *Controller) setMicrophone(enabled bool) {
	c.micGen++
	gen := c.micGen

	c.spawn(func(ctx context.Context) func() {
		err := c.transport.SetMicrophoneEnabled(ctx, enabled)
		return func() {
			if gen != c.micGen {
				return
			}
			if err != nil {
				c.notify(errors.ErrTransportFailed("set microphone enabled", err))
				return
			}
			c.micEnabled = enabled
		}
	})
}

func (c *Controller) setCamera(enabled bool) {
	c.camGen++
	gen := c.camGen

	c.spawn(func(ctx context.Context) func() {
		err := c.transport.SetCameraEnabled(ctx, enabled)
		return func() {
			if gen != c.camGen {
				return
			}
			if err != nil {
				c.notify(errors.ErrTransportFailed("set camera enabled", err))
				return
			}
			c.camEnabled = enabled
		}
	})
}

// Screen share

// ToggleShare implements Service
func (c *Controller) ToggleShare(ctx context.Context) (ShareView, error) {
	return c.shareCommand(ctx, c.negotiator.Toggle)
}

// SelectShareSource implements Service
func (c *Controller) SelectShareSource(ctx context.Context, sourceID string) (ShareView, error) {
	return c.shareCommand(ctx, func() ([]capture.Op, error) {
		return c.negotiator.SelectSource(sourceID)
	})
}

// CancelSharePicker implements Service
func (c *Controller) CancelSharePicker(ctx context.Context) (ShareView, error) {
	return c.shareCommand(ctx, c.negotiator.CancelPicker)
}

func (c *Controller) shareCommand(ctx context.Context, transition func() ([]capture.Op, error)) (ShareView, error) {
	v, err := c.do(ctx, func() (any, error) {
		ops, err := transition()
		if err != nil {
			return nil, err
		}
		c.runShareOps(ops)
		return c.shareView(), nil
	})
	if err != nil {
		return ShareView{}, err
	}
	return v.(ShareView), nil
}

func (c *Controller) runShareOps(ops []capture.Op) {
	for _, op := range ops {
		c.spawn(func(ctx context.Context) func() {
			out := op.Run(ctx)
			return func() {
				res := c.negotiator.Resolve(out)
				c.notify(res.Notice)
				c.runShareOps(res.FollowUp)
			}
		})
	}
}

// Timeline

// SendChat implements Service. The message is appended first and then
// published to the room.
func (c *Controller) SendChat(ctx context.Context, body string, attachment *entities.Attachment) (entities.ChatMessage, error) {
	v, err := c.do(ctx, func() (any, error) {
		msg, err := c.timeline.AppendChat(entities.NewChatMessage(c.localID, body, attachment))
		if err != nil {
			return nil, err
		}
		c.spawn(func(ctx context.Context) func() {
			err := c.transport.SendChat(ctx, msg)
			return func() {
				if err != nil {
					c.notify(errors.ErrTransportFailed("send chat", err).WithDetail("message_id", msg.ID))
				}
			}
		})
		return msg, nil
	})
	if err != nil {
		return entities.ChatMessage{}, err
	}
	return v.(entities.ChatMessage), nil
}

// AddTranslation implements Service
func (c *Controller) AddTranslation(ctx context.Context, entry entities.TranslationEntry) (entities.TranslationEntry, error) {
	v, err := c.do(ctx, func() (any, error) {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		return c.timeline.AppendTranslation(entry)
	})
	if err != nil {
		return entities.TranslationEntry{}, err
	}
	return v.(entities.TranslationEntry), nil
}

// AddTerm implements Service
func (c *Controller) AddTerm(ctx context.Context, term entities.TermExplanation) (entities.TermExplanation, error) {
	v, err := c.do(ctx, func() (any, error) {
		if term.ID == "" {
			term.ID = uuid.NewString()
		}
		return c.timeline.AppendTerm(term)
	})
	if err != nil {
		return entities.TermExplanation{}, err
	}
	return v.(entities.TermExplanation), nil
}

// Transport events

// handleTransportEvent applies ev and reports whether the session is over
func (c *Controller) handleTransportEvent(ev gateways.TransportEvent) bool {
	var err error
	switch ev.Kind {
	case gateways.TransportTracksChanged:
		c.recompose()
	case gateways.TransportParticipantJoined:
		if ev.Participant.ID != c.localID {
			err = c.timeline.Join(ev.Participant)
		}
	case gateways.TransportParticipantLeft:
		err = c.timeline.Leave(ev.Participant.ID)
	case gateways.TransportMuteChanged:
		if ev.Participant.ID == c.localID {
			c.micEnabled = !ev.Participant.Muted
		} else {
			err = c.timeline.SetMuted(ev.Participant.ID, ev.Participant.Muted)
		}
	case gateways.TransportDataReceived:
		err = c.handleData(ev)
	case gateways.TransportDisconnected:
		if c.logger != nil {
			c.logger.Warn("transport disconnected", zap.Error(ev.Err))
		}
		return true
	}

	if err != nil && c.logger != nil {
		c.logger.Warn("failed to apply transport event",
			zap.String("event", ev.Kind.String()),
			zap.String("participant_id", ev.Participant.ID),
			zap.Error(err),
		)
	}
	return false
}

// recompose re-derives the track views and the share flag from the transport
func (c *Controller) recompose() {
	c.tracks = track.Compose(c.localID, c.transport.Tracks())
	c.negotiator.Sync(c.transport.ScreenShareEnabled())
}

func (c *Controller) handleData(ev gateways.TransportEvent) error {
	switch ev.Topic {
	case gateways.TopicChat:
		var msg entities.ChatMessage
		if err := json.Unmarshal(ev.Payload, &msg); err != nil {
			return err
		}
		if msg.ID == "" {
			msg.ID = uuid.NewString()
		}
		if msg.Sender == "" {
			msg.Sender = ev.Participant.ID
		}
		_, err := c.timeline.AppendChat(msg)
		return err

	case gateways.TopicTranslation:
		var entry entities.TranslationEntry
		if err := json.Unmarshal(ev.Payload, &entry); err != nil {
			return err
		}
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		_, err := c.timeline.AppendTranslation(entry)
		return err

	case gateways.TopicTerm:
		var term entities.TermExplanation
		if err := json.Unmarshal(ev.Payload, &term); err != nil {
			return err
		}
		if term.ID == "" {
			term.ID = uuid.NewString()
		}
		_, err := c.timeline.AppendTerm(term)
		return err
	}

	if c.logger != nil {
		c.logger.Debug("ignoring data packet", zap.String("topic", ev.Topic))
	}
	return nil
}
