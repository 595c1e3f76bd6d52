package device

import (
	"context"
	"fmt"

	"github.com/johnquangdev/meeting-session/errors"
	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/domain/gateways"
	"go.uber.org/zap"
)

// Enumeration is the result of one Refresh
type Enumeration struct {
	Lists entities.DeviceLists

	// Warning is a PermissionDenied AppError when the label probe was refused.
	// Enumeration still succeeds with placeholder labels.
	Warning error
}

// Registry enumerates local media devices and reconciles the selection against them
type Registry struct {
	platform gateways.DevicePlatform
	logger   *zap.Logger
}

// NewRegistry creates a new device registry
func NewRegistry(platform gateways.DevicePlatform, logger *zap.Logger) *Registry {
	return &Registry{
		platform: platform,
		logger:   logger,
	}
}

// Refresh probes for label permission, enumerates and partitions devices by kind.
// The probe holds no device: the platform acquires and releases within the call.
func (r *Registry) Refresh(ctx context.Context) (Enumeration, error) {
	var result Enumeration

	if err := r.platform.Probe(ctx); err != nil {
		result.Warning = errors.ErrPermissionDenied("device label probe", err)
		if r.logger != nil {
			r.logger.Warn("device probe refused, using placeholder labels", zap.Error(err))
		}
	}

	devices, err := r.platform.Enumerate(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	result.Lists = Partition(devices)

	if r.logger != nil {
		r.logger.Debug("devices enumerated",
			zap.Int("mics", len(result.Lists.Mics)),
			zap.Int("cameras", len(result.Lists.Cameras)),
			zap.Int("speakers", len(result.Lists.Speakers)),
		)
	}

	return result, nil
}

// Reconcile corrects selected against lists using the platform's active devices
func (r *Registry) Reconcile(selected entities.DeviceSelection, lists entities.DeviceLists) entities.DeviceSelection {
	active := make(map[entities.DeviceKind]string, len(entities.DeviceKinds))
	for _, kind := range entities.DeviceKinds {
		if id, ok := r.platform.ActiveDevice(kind); ok {
			active[kind] = id
		}
	}
	return Reconcile(selected, lists, active)
}

// Partition splits devices by kind, keeping platform order and replacing
// missing labels with placeholders numbered per kind.
func Partition(devices []entities.Device) entities.DeviceLists {
	lists := entities.DeviceLists{
		Mics:     []entities.Device{},
		Cameras:  []entities.Device{},
		Speakers: []entities.Device{},
	}

	for _, d := range devices {
		switch d.Kind {
		case entities.DeviceKindAudioInput:
			if d.Label == "" {
				d.Label = entities.PlaceholderLabel(d.Kind, len(lists.Mics)+1)
			}
			lists.Mics = append(lists.Mics, d)
		case entities.DeviceKindVideoInput:
			if d.Label == "" {
				d.Label = entities.PlaceholderLabel(d.Kind, len(lists.Cameras)+1)
			}
			lists.Cameras = append(lists.Cameras, d)
		case entities.DeviceKindAudioOutput:
			if d.Label == "" {
				d.Label = entities.PlaceholderLabel(d.Kind, len(lists.Speakers)+1)
			}
			lists.Speakers = append(lists.Speakers, d)
		}
	}

	return lists
}

// Reconcile returns a selection in which every id belongs to the list of its kind.
// A stale id is replaced by the active device for that kind when it is listed,
// else by the first entry; an empty list leaves the kind unset.
// Reapplying it to the same lists returns the same selection.
func Reconcile(selected entities.DeviceSelection, lists entities.DeviceLists, active map[entities.DeviceKind]string) entities.DeviceSelection {
	for _, kind := range entities.DeviceKinds {
		id := selected.Get(kind)
		if id != "" && lists.Contains(kind, id) {
			continue
		}

		candidates := lists.ForKind(kind)
		switch {
		case len(candidates) == 0:
			id = ""
		case active[kind] != "" && lists.Contains(kind, active[kind]):
			id = active[kind]
		default:
			id = candidates[0].ID
		}
		selected = selected.With(kind, id)
	}
	return selected
}
