package livekit

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-session/pkg/config"
)

func testLiveKitConfig() config.LiveKitConfig {
	return config.LiveKitConfig{
		URL:       "ws://localhost:7880",
		APIKey:    "devkey",
		APISecret: "devsecret-devsecret-devsecret-00",
		Room:      "standup",
		TokenTTL:  time.Hour,
	}
}

func TestJoinTokenGrantsRoom(t *testing.T) {
	c := NewClient(testLiveKitConfig())

	token, err := c.JoinToken("alice", "Alice", `{"language":"ja"}`)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("devsecret-devsecret-devsecret-00"), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	require.Equal(t, "devkey", claims["iss"])
	require.Equal(t, "alice", claims["sub"])
	require.Equal(t, "Alice", claims["name"])
	require.Equal(t, `{"language":"ja"}`, claims["metadata"])

	video, ok := claims["video"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "standup", video["room"])
	require.Equal(t, true, video["roomJoin"])
	require.Equal(t, true, video["canPublishData"])
}

func TestDispatchWithoutAgent(t *testing.T) {
	c := NewClient(testLiveKitConfig())
	_, err := c.DispatchAgent(context.Background(), "")
	require.Error(t, err)
}

func TestHTTPURL(t *testing.T) {
	require.Equal(t, "https://lk.example.com", httpURL("wss://lk.example.com"))
	require.Equal(t, "http://localhost:7880", httpURL("ws://localhost:7880"))
	require.Equal(t, "http://localhost:7880", httpURL("http://localhost:7880"))
}
