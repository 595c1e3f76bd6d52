package capture

import (
	"context"
	stdErrors "errors"

	"github.com/johnquangdev/meeting-session/errors"
	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/domain/gateways"
	usecaseErrors "github.com/johnquangdev/meeting-session/internal/usecase/errors"
	"go.uber.org/zap"
)

// State of the screen share negotiation
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateAwaitingHostSelection
	StateActive
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateAwaitingHostSelection:
		return "awaiting_host_selection"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// OpKind identifies the collaborator call behind an Op
type OpKind int

const (
	OpOpenPicker OpKind = iota
	OpNativeStart
	OpCommitSource
	OpStop
	OpAbortPicker
	OpRejectPicker
)

func (k OpKind) String() string {
	switch k {
	case OpOpenPicker:
		return "open_picker"
	case OpNativeStart:
		return "native_start"
	case OpCommitSource:
		return "commit_source"
	case OpStop:
		return "stop"
	case OpAbortPicker:
		return "abort_picker"
	case OpRejectPicker:
		return "reject_picker"
	default:
		return "unknown"
	}
}

// Op is a blocking transport or host call produced by a transition. The caller
// runs it off the event loop and feeds the Outcome back through Resolve.
type Op struct {
	Kind OpKind
	Gen  uint64
	run  func(ctx context.Context) error
}

// Run executes the call. Errors are already converted to AppErrors.
func (o Op) Run(ctx context.Context) Outcome {
	return Outcome{Kind: o.Kind, Gen: o.Gen, Err: o.run(ctx)}
}

// Outcome is the result of a finished Op
type Outcome struct {
	Kind OpKind
	Gen  uint64
	Err  error
}

// Resolution is what applying an Outcome produced
type Resolution struct {
	// Notice is the problem to surface, if any
	Notice error

	// FollowUp holds Ops to run next, e.g. undoing a stale successful start
	FollowUp []Op
}

// Negotiator drives the screen share state machine and the host picker
// handshake. It is not safe for concurrent use; the session loop owns it.
type Negotiator struct {
	transport gateways.Transport
	host      gateways.HostBridge
	logger    *zap.Logger

	state    State
	gen      uint64
	sources  []entities.CaptureSource
	sourceID string
	sharing  bool

	// generation of the open picker whose source list has not arrived yet
	awaitingList uint64
	// generation of a picker cancelled before its source list arrived. The
	// host already got its null selection, the late list is dropped.
	abortedList uint64
}

// NewNegotiator creates a new negotiator in the Idle state
func NewNegotiator(transport gateways.Transport, host gateways.HostBridge, logger *zap.Logger) *Negotiator {
	if host == nil {
		host = gateways.NoHostBridge{}
	}
	return &Negotiator{
		transport: transport,
		host:      host,
		logger:    logger,
		sharing:   transport.ScreenShareEnabled(),
	}
}

func (n *Negotiator) State() State { return n.state }

// Sharing is the share flag last read from the transport
func (n *Negotiator) Sharing() bool { return n.sharing }

// SourceID is the host source committed by the last selection
func (n *Negotiator) SourceID() string { return n.sourceID }

// Sources returns the picker list received from the host
func (n *Negotiator) Sources() []entities.CaptureSource {
	out := make([]entities.CaptureSource, len(n.sources))
	copy(out, n.sources)
	return out
}

// Toggle starts or stops sharing depending on the current state.
// While the host picker is open it cancels the picker. While a start request
// is in flight it invalidates that request.
func (n *Negotiator) Toggle() ([]Op, error) {
	switch n.state {
	case StateIdle:
		n.gen++
		n.state = StateRequesting
		if n.host.Available() {
			n.state = StateAwaitingHostSelection
			n.sources = nil
			n.awaitingList = n.gen
			// a list still in flight for an older picker is taken as this one's
			n.abortedList = 0
			return []Op{n.openPickerOp()}, nil
		}
		return []Op{n.nativeStartOp()}, nil

	case StateActive:
		n.gen++
		n.state = StateIdle
		n.sourceID = ""
		return []Op{n.stopOp()}, nil

	case StateAwaitingHostSelection:
		return n.CancelPicker()

	case StateRequesting:
		n.gen++
		n.state = StateIdle
		n.sourceID = ""
		return nil, nil
	}
	return nil, usecaseErrors.ErrShareUnavailable
}

// OnPickerRequest handles the source list sent by the host. A list that
// arrives while no picker was requested is answered with a null selection.
func (n *Negotiator) OnPickerRequest(req gateways.PickerRequest) []Op {
	if n.state != StateAwaitingHostSelection && n.abortedList != 0 {
		n.abortedList = 0
		if n.logger != nil {
			n.logger.Debug("dropping source list of a cancelled picker", zap.Int("sources", len(req.Sources)))
		}
		return nil
	}
	if n.state != StateAwaitingHostSelection {
		if n.logger != nil {
			n.logger.Warn("unexpected capture picker request",
				zap.String("state", n.state.String()),
				zap.Int("sources", len(req.Sources)),
			)
		}
		return []Op{n.rejectPickerOp()}
	}

	n.awaitingList = 0
	n.sources = make([]entities.CaptureSource, len(req.Sources))
	copy(n.sources, req.Sources)
	return nil
}

// SelectSource commits a source offered by the host picker
func (n *Negotiator) SelectSource(sourceID string) ([]Op, error) {
	if n.state != StateAwaitingHostSelection {
		return nil, usecaseErrors.ErrPickerNotOpen
	}
	if !n.offered(sourceID) {
		return nil, entities.ErrUnknownSource
	}

	n.gen++
	n.state = StateRequesting
	n.sourceID = sourceID
	return []Op{n.commitOp(sourceID)}, nil
}

// CancelPicker closes the host picker. The host receives exactly one null selection.
func (n *Negotiator) CancelPicker() ([]Op, error) {
	if n.state != StateAwaitingHostSelection {
		return nil, usecaseErrors.ErrPickerNotOpen
	}

	if n.awaitingList != 0 {
		n.abortedList = n.awaitingList
		n.awaitingList = 0
	}
	n.gen++
	n.state = StateIdle
	n.sources = nil
	return []Op{n.abortPickerOp()}, nil
}

// Resolve applies a finished Op
func (n *Negotiator) Resolve(out Outcome) Resolution {
	switch out.Kind {
	case OpAbortPicker:
		if out.Err != nil {
			return Resolution{Notice: out.Err}
		}
		return Resolution{Notice: errors.ErrShareCancelled(nil)}
	case OpRejectPicker:
		return Resolution{Notice: out.Err}
	case OpOpenPicker:
		// a picker that never opened sends no source list
		if out.Err != nil {
			if n.awaitingList == out.Gen {
				n.awaitingList = 0
			}
			if n.abortedList == out.Gen {
				n.abortedList = 0
			}
		}
	}

	defer n.refresh()

	if out.Gen != n.gen {
		if n.logger != nil {
			n.logger.Debug("discarding stale share result",
				zap.String("op", out.Kind.String()),
				zap.Uint64("gen", out.Gen),
				zap.Uint64("current", n.gen),
			)
		}
		started := out.Err == nil && (out.Kind == OpNativeStart || out.Kind == OpCommitSource)
		if started && (n.state == StateIdle || n.state == StateAwaitingHostSelection) {
			return Resolution{FollowUp: []Op{n.stopOp()}}
		}
		return Resolution{}
	}

	switch out.Kind {
	case OpOpenPicker:
		if out.Err != nil {
			n.state = StateIdle
			n.sources = nil
			return Resolution{Notice: errors.ErrShareFailed(out.Err)}
		}

	case OpNativeStart, OpCommitSource:
		if out.Err != nil {
			n.state = StateIdle
			n.sourceID = ""
			return Resolution{Notice: out.Err}
		}
		n.state = StateActive
		n.sources = nil

	case OpStop:
		if out.Err != nil {
			if n.transport.ScreenShareEnabled() {
				n.state = StateActive
			}
			return Resolution{Notice: out.Err}
		}
	}

	return Resolution{}
}

// Sync re-derives the share flag from the transport after a track-set change.
// The transport flag wins over the local state in the settled states.
func (n *Negotiator) Sync(enabled bool) {
	n.sharing = enabled
	switch {
	case n.state == StateActive && !enabled:
		n.state = StateIdle
		n.sourceID = ""
	case n.state == StateIdle && enabled:
		n.state = StateActive
	}
}

func (n *Negotiator) refresh() {
	n.sharing = n.transport.ScreenShareEnabled()
}

func (n *Negotiator) offered(sourceID string) bool {
	if sourceID == "" {
		return false
	}
	for _, s := range n.sources {
		if s.ID == sourceID {
			return true
		}
	}
	return false
}

func (n *Negotiator) openPickerOp() Op {
	return Op{Kind: OpOpenPicker, Gen: n.gen, run: func(ctx context.Context) error {
		if err := n.host.OpenPicker(ctx); err != nil {
			return errors.ErrHostFailed("open picker", err)
		}
		return nil
	}}
}

func (n *Negotiator) nativeStartOp() Op {
	return Op{Kind: OpNativeStart, Gen: n.gen, run: func(ctx context.Context) error {
		err := n.transport.SetScreenShareEnabled(ctx, true, entities.ScreenShareOptions{Audio: false})
		if err == nil {
			return nil
		}
		if stdErrors.Is(err, gateways.ErrCaptureDenied) || stdErrors.Is(err, context.Canceled) {
			return errors.ErrShareCancelled(err)
		}
		return errors.ErrShareFailed(err)
	}}
}

func (n *Negotiator) commitOp(sourceID string) Op {
	return Op{Kind: OpCommitSource, Gen: n.gen, run: func(ctx context.Context) error {
		opts := entities.ScreenShareOptions{SourceID: sourceID}
		if err := n.transport.SetScreenShareEnabled(ctx, true, opts); err != nil {
			// the host still waits for an answer
			if hostErr := n.host.SelectSource(ctx, ""); hostErr != nil && n.logger != nil {
				n.logger.Warn("failed to abort host picker", zap.Error(hostErr))
			}
			return errors.ErrShareFailed(err).WithDetail("source_id", sourceID)
		}
		if err := n.host.SelectSource(ctx, sourceID); err != nil && n.logger != nil {
			n.logger.Warn("host did not accept selected source",
				zap.String("source_id", sourceID),
				zap.Error(err),
			)
		}
		return nil
	}}
}

func (n *Negotiator) stopOp() Op {
	return Op{Kind: OpStop, Gen: n.gen, run: func(ctx context.Context) error {
		if err := n.transport.SetScreenShareEnabled(ctx, false, entities.ScreenShareOptions{}); err != nil {
			return errors.ErrTransportFailed("disable screen share", err)
		}
		return nil
	}}
}

func (n *Negotiator) abortPickerOp() Op {
	return Op{Kind: OpAbortPicker, Gen: n.gen, run: func(ctx context.Context) error {
		if err := n.host.SelectSource(ctx, ""); err != nil {
			return errors.ErrHostFailed("abort picker", err)
		}
		return nil
	}}
}

func (n *Negotiator) rejectPickerOp() Op {
	return Op{Kind: OpRejectPicker, Gen: n.gen, run: func(ctx context.Context) error {
		if err := n.host.SelectSource(ctx, ""); err != nil {
			return errors.ErrHostFailed("reject picker", err)
		}
		return nil
	}}
}
