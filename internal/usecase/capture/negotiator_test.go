package capture

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/johnquangdev/meeting-session/errors"
	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/domain/gateways"
	usecaseErrors "github.com/johnquangdev/meeting-session/internal/usecase/errors"
	"github.com/stretchr/testify/require"
)

type shareTransport struct {
	gateways.Transport
	sharing  bool
	shareErr error
	opts     []entities.ScreenShareOptions
}

func (t *shareTransport) ScreenShareEnabled() bool { return t.sharing }

func (t *shareTransport) SetScreenShareEnabled(_ context.Context, enabled bool, opts entities.ScreenShareOptions) error {
	if enabled && t.shareErr != nil {
		return t.shareErr
	}
	t.opts = append(t.opts, opts)
	t.sharing = enabled
	return nil
}

type pickerHost struct {
	available  bool
	openErr    error
	opened     int
	selections []string
}

func (h *pickerHost) Available() bool { return h.available }

func (h *pickerHost) Subscribe(func(gateways.PickerRequest)) func() { return func() {} }

func (h *pickerHost) OpenPicker(context.Context) error {
	h.opened++
	return h.openErr
}

func (h *pickerHost) SelectSource(_ context.Context, id string) error {
	h.selections = append(h.selections, id)
	return nil
}

func (h *pickerHost) nullSelections() int {
	n := 0
	for _, s := range h.selections {
		if s == "" {
			n++
		}
	}
	return n
}

var screens = gateways.PickerRequest{Sources: []entities.CaptureSource{
	{ID: "screen-1", DisplayName: "Entire screen"},
	{ID: "window-7", DisplayName: "Editor"},
}}

// run executes ops the way the session loop does and applies their outcomes
func run(t *testing.T, n *Negotiator, ops []Op) []error {
	t.Helper()
	var notices []error
	for len(ops) > 0 {
		op := ops[0]
		ops = ops[1:]
		res := n.Resolve(op.Run(context.Background()))
		if res.Notice != nil {
			notices = append(notices, res.Notice)
		}
		ops = append(ops, res.FollowUp...)
	}
	return notices
}

func TestHostPickerRoundTrip(t *testing.T) {
	transport := &shareTransport{}
	host := &pickerHost{available: true}
	n := NewNegotiator(transport, host, nil)

	ops, err := n.Toggle()
	require.NoError(t, err)
	require.Equal(t, StateAwaitingHostSelection, n.State())
	require.Equal(t, transport.sharing, n.Sharing())

	require.Empty(t, run(t, n, ops))
	require.Equal(t, 1, host.opened)
	require.Nil(t, n.OnPickerRequest(screens))
	require.Len(t, n.Sources(), 2)

	ops, err = n.SelectSource("screen-1")
	require.NoError(t, err)
	require.Equal(t, StateRequesting, n.State())
	require.Equal(t, transport.sharing, n.Sharing())

	require.Empty(t, run(t, n, ops))
	require.Equal(t, StateActive, n.State())
	require.True(t, n.Sharing())
	require.Equal(t, transport.sharing, n.Sharing())
	require.Equal(t, "screen-1", transport.opts[0].SourceID)
	require.Equal(t, []string{"screen-1"}, host.selections)

	ops, err = n.Toggle()
	require.NoError(t, err)
	require.Equal(t, StateIdle, n.State())
	require.Equal(t, transport.sharing, n.Sharing())

	require.Empty(t, run(t, n, ops))
	require.Equal(t, StateIdle, n.State())
	require.False(t, n.Sharing())
	require.Equal(t, transport.sharing, n.Sharing())
}

func TestCancelPickerSendsOneNullSelection(t *testing.T) {
	transport := &shareTransport{}
	host := &pickerHost{available: true}
	n := NewNegotiator(transport, host, nil)

	ops, err := n.Toggle()
	require.NoError(t, err)
	run(t, n, ops)
	n.OnPickerRequest(screens)

	ops, err = n.CancelPicker()
	require.NoError(t, err)
	notices := run(t, n, ops)

	require.Equal(t, StateIdle, n.State())
	require.Equal(t, 1, host.nullSelections())
	require.Len(t, host.selections, 1)
	require.Len(t, notices, 1)
	require.True(t, apperrors.HasCode(notices[0], apperrors.ErrorCode_SHARE_CANCELLED))

	_, err = n.CancelPicker()
	require.ErrorIs(t, err, usecaseErrors.ErrPickerNotOpen)
	require.Equal(t, 1, host.nullSelections())
}

func TestCancelBeforeSourceListArrives(t *testing.T) {
	host := &pickerHost{available: true}
	n := NewNegotiator(&shareTransport{}, host, nil)

	ops, err := n.Toggle()
	require.NoError(t, err)
	require.Empty(t, run(t, n, ops))

	// the user cancels while the host is still building its list
	ops, err = n.CancelPicker()
	require.NoError(t, err)
	run(t, n, ops)
	require.Equal(t, StateIdle, n.State())

	require.Empty(t, n.OnPickerRequest(screens))
	require.Equal(t, 1, host.nullSelections())
	require.Empty(t, n.Sources())

	// a later unsolicited list is still answered
	run(t, n, n.OnPickerRequest(screens))
	require.Equal(t, 2, host.nullSelections())
}

func TestCancelAfterFailedOpenStillRejectsStrayList(t *testing.T) {
	host := &pickerHost{available: true, openErr: fmt.Errorf("host busy")}
	n := NewNegotiator(&shareTransport{}, host, nil)

	ops, err := n.Toggle()
	require.NoError(t, err)

	// cancel lands before the failed open resolves
	cancelOps, err := n.CancelPicker()
	require.NoError(t, err)
	run(t, n, ops)
	run(t, n, cancelOps)
	require.Equal(t, 1, host.nullSelections())

	run(t, n, n.OnPickerRequest(screens))
	require.Equal(t, 2, host.nullSelections())
}

func TestToggleWhileAwaitingCancelsPicker(t *testing.T) {
	host := &pickerHost{available: true}
	n := NewNegotiator(&shareTransport{}, host, nil)

	ops, _ := n.Toggle()
	run(t, n, ops)

	ops, err := n.Toggle()
	require.NoError(t, err)
	run(t, n, ops)
	require.Equal(t, StateIdle, n.State())
	require.Equal(t, 1, host.nullSelections())
}

func TestSelectUnknownSource(t *testing.T) {
	n := NewNegotiator(&shareTransport{}, &pickerHost{available: true}, nil)
	ops, _ := n.Toggle()
	run(t, n, ops)
	n.OnPickerRequest(screens)

	_, err := n.SelectSource("screen-9")
	require.ErrorIs(t, err, entities.ErrUnknownSource)
	require.Equal(t, StateAwaitingHostSelection, n.State())
}

func TestUnexpectedPickerRequestIsRejected(t *testing.T) {
	host := &pickerHost{available: true}
	n := NewNegotiator(&shareTransport{}, host, nil)

	ops := n.OnPickerRequest(screens)
	require.Len(t, ops, 1)
	require.Empty(t, run(t, n, ops))
	require.Equal(t, []string{""}, host.selections)
	require.Equal(t, StateIdle, n.State())
}

func TestNativePrompt(t *testing.T) {
	tests := []struct {
		name      string
		shareErr  error
		wantState State
		wantCode  *apperrors.ErrorCode
	}{
		{name: "success", wantState: StateActive},
		{name: "denied", shareErr: fmt.Errorf("prompt: %w", gateways.ErrCaptureDenied), wantState: StateIdle, wantCode: codePtr(apperrors.ErrorCode_SHARE_CANCELLED)},
		{name: "failure", shareErr: errors.New("encoder crashed"), wantState: StateIdle, wantCode: codePtr(apperrors.ErrorCode_SHARE_FAILED)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &shareTransport{shareErr: tt.shareErr}
			n := NewNegotiator(transport, gateways.NoHostBridge{}, nil)

			ops, err := n.Toggle()
			require.NoError(t, err)
			require.Equal(t, StateRequesting, n.State())

			notices := run(t, n, ops)
			require.Equal(t, tt.wantState, n.State())
			require.Equal(t, transport.sharing, n.Sharing())
			if tt.wantCode == nil {
				require.Empty(t, notices)
				return
			}
			require.Len(t, notices, 1)
			require.True(t, apperrors.HasCode(notices[0], *tt.wantCode))
		})
	}
}

func TestStaleStartIsUndone(t *testing.T) {
	transport := &shareTransport{}
	n := NewNegotiator(transport, nil, nil)

	ops, err := n.Toggle()
	require.NoError(t, err)
	require.Equal(t, StateRequesting, n.State())

	// second toggle while the prompt is still open
	more, err := n.Toggle()
	require.NoError(t, err)
	require.Empty(t, more)
	require.Equal(t, StateIdle, n.State())

	require.Empty(t, run(t, n, ops))
	require.Equal(t, StateIdle, n.State())
	require.False(t, transport.sharing)
	require.False(t, n.Sharing())
}

func TestCommitFailureAbortsHost(t *testing.T) {
	transport := &shareTransport{shareErr: errors.New("publish failed")}
	host := &pickerHost{available: true}
	n := NewNegotiator(transport, host, nil)

	ops, _ := n.Toggle()
	run(t, n, ops)
	n.OnPickerRequest(screens)

	ops, err := n.SelectSource("window-7")
	require.NoError(t, err)
	notices := run(t, n, ops)

	require.Equal(t, StateIdle, n.State())
	require.Equal(t, []string{""}, host.selections)
	require.Len(t, notices, 1)
	require.True(t, apperrors.HasCode(notices[0], apperrors.ErrorCode_SHARE_FAILED))
}

func TestSyncFollowsTransport(t *testing.T) {
	transport := &shareTransport{}
	n := NewNegotiator(transport, nil, nil)

	transport.sharing = true
	n.Sync(transport.ScreenShareEnabled())
	require.Equal(t, StateActive, n.State())
	require.True(t, n.Sharing())

	transport.sharing = false
	n.Sync(transport.ScreenShareEnabled())
	require.Equal(t, StateIdle, n.State())
	require.False(t, n.Sharing())
}

func codePtr(c apperrors.ErrorCode) *apperrors.ErrorCode { return &c }
