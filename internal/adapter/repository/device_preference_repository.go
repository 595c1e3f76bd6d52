package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/johnquangdev/meeting-session/errors"
	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/domain/repositories"
	"github.com/johnquangdev/meeting-session/internal/infrastructure/cache"
)

const devicePrefsKeyPrefix = "device_prefs:"

// DevicePreferenceRepository keeps device selections in the key-value cache
type DevicePreferenceRepository struct {
	store cache.Store
	ttl   time.Duration
}

var _ repositories.DevicePreferenceRepository = (*DevicePreferenceRepository)(nil)

// NewDevicePreferenceRepository creates a preference repository. A zero ttl keeps
// selections until they are overwritten.
func NewDevicePreferenceRepository(store cache.Store, ttl time.Duration) *DevicePreferenceRepository {
	return &DevicePreferenceRepository{store: store, ttl: ttl}
}

func devicePrefsKey(userID string) string {
	return devicePrefsKeyPrefix + userID
}

// Load returns the saved selection of userID, empty when nothing was saved
func (r *DevicePreferenceRepository) Load(ctx context.Context, userID string) (entities.DeviceSelection, error) {
	raw, ok, err := r.store.Get(ctx, devicePrefsKey(userID))
	if err != nil {
		return entities.DeviceSelection{}, errors.ErrCacheFailed("load device preferences", err).WithDetail("user_id", userID)
	}
	if !ok {
		return entities.DeviceSelection{}, nil
	}

	var selection entities.DeviceSelection
	if err := json.Unmarshal([]byte(raw), &selection); err != nil {
		return entities.DeviceSelection{}, fmt.Errorf("failed to decode device preferences: %w", err)
	}
	return selection, nil
}

// Save overwrites the selection of userID
func (r *DevicePreferenceRepository) Save(ctx context.Context, userID string, selection entities.DeviceSelection) error {
	data, err := json.Marshal(selection)
	if err != nil {
		return fmt.Errorf("failed to encode device preferences: %w", err)
	}
	if err := r.store.Set(ctx, devicePrefsKey(userID), string(data), r.ttl); err != nil {
		return errors.ErrCacheFailed("save device preferences", err).WithDetail("user_id", userID)
	}
	return nil
}
