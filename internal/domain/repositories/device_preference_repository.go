package repositories

import (
	"context"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
)

// DevicePreferenceRepository keeps the last selected devices of a user across sessions
type DevicePreferenceRepository interface {
	// Load returns the saved selection, or an empty selection when none exists
	Load(ctx context.Context, userID string) (entities.DeviceSelection, error)

	Save(ctx context.Context, userID string, selection entities.DeviceSelection) error
}
