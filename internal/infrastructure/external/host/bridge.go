package host

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/domain/gateways"
	"github.com/johnquangdev/meeting-session/pkg/config"
	"github.com/johnquangdev/meeting-session/pkg/jwt"
)

// Message types exchanged with the host process
const (
	TypeOpenPicker    = "open_picker"
	TypeSelectSource  = "select_source"
	TypePickerRequest = "picker_request"
)

// inbound is a message received from the host
type inbound struct {
	Type    string                   `json:"type"`
	Sources []entities.CaptureSource `json:"sources,omitempty"`
}

type openPicker struct {
	Type string `json:"type"`
}

// selectSource carries a null source_id when the picker is aborted
type selectSource struct {
	Type     string  `json:"type"`
	SourceID *string `json:"source_id"`
}

// Bridge is a gateways.HostBridge over a websocket connection to the host process
type Bridge struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	logger       *zap.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	handlers map[int]func(gateways.PickerRequest)
	nextID   int

	connected atomic.Bool
	done      chan struct{}
}

var _ gateways.HostBridge = (*Bridge)(nil)

// Dial connects to the host bridge and authenticates with an HS256 bearer token
func Dial(ctx context.Context, cfg config.HostConfig, tokens *jwt.Manager, userID, roomName string, logger *zap.Logger) (*Bridge, error) {
	token, err := tokens.GenerateToken(userID, roomName)
	if err != nil {
		return nil, fmt.Errorf("failed to generate host token: %w", err)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	dialer := websocket.Dialer{HandshakeTimeout: cfg.DialTimeout}
	conn, resp, err := dialer.DialContext(ctx, cfg.URL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial host bridge (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to dial host bridge: %w", err)
	}

	b := &Bridge{
		conn:         conn,
		writeTimeout: cfg.WriteTimeout,
		logger:       logger,
		handlers:     make(map[int]func(gateways.PickerRequest)),
		done:         make(chan struct{}),
	}
	b.connected.Store(true)

	go b.readLoop()

	if logger != nil {
		logger.Info("host bridge connected", zap.String("url", cfg.URL))
	}
	return b, nil
}

// Available reports whether the host connection is still open
func (b *Bridge) Available() bool {
	return b.connected.Load()
}

// Subscribe registers handler for picker requests
func (b *Bridge) Subscribe(handler func(gateways.PickerRequest)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}
}

// OpenPicker asks the host to show its capture picker
func (b *Bridge) OpenPicker(ctx context.Context) error {
	return b.write(ctx, openPicker{Type: TypeOpenPicker})
}

// SelectSource commits sourceID, or aborts the picker when sourceID is empty
func (b *Bridge) SelectSource(ctx context.Context, sourceID string) error {
	msg := selectSource{Type: TypeSelectSource}
	if sourceID != "" {
		msg.SourceID = &sourceID
	}
	return b.write(ctx, msg)
}

// Close closes the connection and waits for the reader to exit
func (b *Bridge) Close() error {
	b.writeMu.Lock()
	_ = b.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	b.writeMu.Unlock()

	err := b.conn.Close()
	<-b.done
	return err
}

func (b *Bridge) write(ctx context.Context, v interface{}) error {
	if !b.Available() {
		return fmt.Errorf("host bridge disconnected")
	}

	deadline := time.Now().Add(b.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if err := b.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := b.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("failed to write to host bridge: %w", err)
	}
	return nil
}

func (b *Bridge) readLoop() {
	defer close(b.done)
	defer b.connected.Store(false)

	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			if b.logger != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.logger.Warn("host bridge read failed", zap.Error(err))
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			if b.logger != nil {
				b.logger.Warn("invalid host message", zap.Error(err))
			}
			continue
		}

		switch msg.Type {
		case TypePickerRequest:
			b.dispatch(gateways.PickerRequest{Sources: msg.Sources})
		default:
			if b.logger != nil {
				b.logger.Debug("ignoring host message", zap.String("type", msg.Type))
			}
		}
	}
}

func (b *Bridge) dispatch(req gateways.PickerRequest) {
	b.mu.Lock()
	handlers := make([]func(gateways.PickerRequest), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(req)
	}
}
