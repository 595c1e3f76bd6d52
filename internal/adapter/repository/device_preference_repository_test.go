package repository

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-session/errors"
	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/infrastructure/cache"
)

func TestDevicePreferencesRoundTrip(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Close()
	repo := NewDevicePreferenceRepository(store, time.Hour)
	ctx := context.Background()

	empty, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, entities.DeviceSelection{}, empty)

	want := entities.DeviceSelection{MicID: "hw:1,0", CameraID: "/dev/video0"}
	require.NoError(t, repo.Save(ctx, "alice", want))

	got, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, want, got)

	// selections are per user
	other, err := repo.Load(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, entities.DeviceSelection{}, other)
}

func TestDevicePreferencesCorruptValue(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Close()
	repo := NewDevicePreferenceRepository(store, 0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, devicePrefsKey("alice"), "{not json", 0))

	_, err := repo.Load(ctx, "alice")
	require.Error(t, err)
}

// brokenStore fails every call, like Redis with the connection gone
type brokenStore struct {
	cache.Store
}

var errConnRefused = stdErrors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errConnRefused
}

func (brokenStore) Set(context.Context, string, string, time.Duration) error {
	return errConnRefused
}

func TestDevicePreferencesStoreFailure(t *testing.T) {
	repo := NewDevicePreferenceRepository(brokenStore{}, time.Hour)
	ctx := context.Background()

	_, err := repo.Load(ctx, "alice")
	require.True(t, errors.HasCode(err, errors.ErrorCode_INTEGRATION_CACHE_FAILED))
	require.ErrorIs(t, err, errConnRefused)

	err = repo.Save(ctx, "alice", entities.DeviceSelection{MicID: "hw:1,0"})
	require.True(t, errors.HasCode(err, errors.ErrorCode_INTEGRATION_CACHE_FAILED))
	require.ErrorIs(t, err, errConnRefused)
}
