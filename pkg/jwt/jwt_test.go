package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("host-secret", time.Minute)

	token, err := m.GenerateToken("alice", "standup")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.UserID)
	require.Equal(t, "standup", claims.RoomName)
	require.Equal(t, "alice", claims.Subject)
}

func TestTokenRejected(t *testing.T) {
	m := NewManager("host-secret", time.Minute)
	token, err := m.GenerateToken("alice", "standup")
	require.NoError(t, err)

	_, err = NewManager("other-secret", time.Minute).ValidateToken(token)
	require.Error(t, err)

	expired := NewManager("host-secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = expired.ValidateToken(token)
	require.Error(t, err)
}
