package livekit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/livekit/protocol/auth"
	livekit "github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/johnquangdev/meeting-session/pkg/config"
)

// Client is the LiveKit server API used to prepare the session room
type Client interface {
	// EnsureRoom creates the configured room, or returns it when it already exists
	EnsureRoom(ctx context.Context) (*RoomInfo, error)

	// JoinToken mints the access token the local participant joins with
	JoinToken(identity, displayName, metadata string) (string, error)

	// DispatchAgent sends the configured agent into the room
	DispatchAgent(ctx context.Context, metadata string) (string, error)
}

// RoomInfo is the part of the room state logged at startup
type RoomInfo struct {
	Name            string
	SID             string
	NumParticipants uint32
	CreatedAt       time.Time
}

type roomClient struct {
	cfg      config.LiveKitConfig
	rooms    *lksdk.RoomServiceClient
	dispatch *lksdk.AgentDispatchClient
}

// NewClient creates a client bound to cfg.Room
func NewClient(cfg config.LiveKitConfig) Client {
	return &roomClient{
		cfg:      cfg,
		rooms:    lksdk.NewRoomServiceClient(httpURL(cfg.URL), cfg.APIKey, cfg.APISecret),
		dispatch: lksdk.NewAgentDispatchServiceClient(httpURL(cfg.URL), cfg.APIKey, cfg.APISecret),
	}
}

func (c *roomClient) EnsureRoom(ctx context.Context) (*RoomInfo, error) {
	// CreateRoom returns the existing room when the name is taken
	room, err := c.rooms.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:             c.cfg.Room,
		MaxParticipants:  c.cfg.MaxParticipants,
		EmptyTimeout:     uint32(c.cfg.EmptyTimeout / time.Second),
		DepartureTimeout: uint32(c.cfg.DepartureTimeout / time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to ensure room %s: %w", c.cfg.Room, err)
	}

	return &RoomInfo{
		Name:            room.Name,
		SID:             room.Sid,
		NumParticipants: room.NumParticipants,
		CreatedAt:       time.Unix(room.CreationTime, 0),
	}, nil
}

func (c *roomClient) JoinToken(identity, displayName, metadata string) (string, error) {
	return joinToken(c.cfg, identity, displayName, metadata)
}

func (c *roomClient) DispatchAgent(ctx context.Context, metadata string) (string, error) {
	if c.cfg.AgentName == "" {
		return "", fmt.Errorf("no agent configured")
	}
	dispatch, err := c.dispatch.CreateDispatch(ctx, &livekit.CreateAgentDispatchRequest{
		AgentName: c.cfg.AgentName,
		Room:      c.cfg.Room,
		Metadata:  metadata,
	})
	if err != nil {
		return "", fmt.Errorf("failed to dispatch agent %s: %w", c.cfg.AgentName, err)
	}
	return dispatch.Id, nil
}

// joinToken grants room join, publish, subscribe and data for cfg.Room
func joinToken(cfg config.LiveKitConfig, identity, displayName, metadata string) (string, error) {
	allow := true
	at := auth.NewAccessToken(cfg.APIKey, cfg.APISecret)
	at.AddGrant(&auth.VideoGrant{
		RoomJoin:       true,
		Room:           cfg.Room,
		CanPublish:     &allow,
		CanSubscribe:   &allow,
		CanPublishData: &allow,
	}).
		SetIdentity(identity).
		SetName(displayName).
		SetMetadata(metadata).
		SetValidFor(cfg.TokenTTL)

	token, err := at.ToJWT()
	if err != nil {
		return "", fmt.Errorf("failed to sign join token: %w", err)
	}
	return token, nil
}

// httpURL turns the websocket signal URL into the URL of the server API
func httpURL(url string) string {
	switch {
	case strings.HasPrefix(url, "wss://"):
		return "https://" + strings.TrimPrefix(url, "wss://")
	case strings.HasPrefix(url, "ws://"):
		return "http://" + strings.TrimPrefix(url, "ws://")
	default:
		return url
	}
}
