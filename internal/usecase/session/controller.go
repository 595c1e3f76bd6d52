package session

import (
	"context"
	stdErrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/johnquangdev/meeting-session/errors"
	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/domain/gateways"
	"github.com/johnquangdev/meeting-session/internal/domain/repositories"
	"github.com/johnquangdev/meeting-session/internal/usecase/capture"
	"github.com/johnquangdev/meeting-session/internal/usecase/device"
	usecaseErrors "github.com/johnquangdev/meeting-session/internal/usecase/errors"
	"github.com/johnquangdev/meeting-session/internal/usecase/recorder"
	"github.com/johnquangdev/meeting-session/internal/usecase/timeline"
	"github.com/johnquangdev/meeting-session/internal/usecase/track"
	"go.uber.org/zap"
)

const (
	defaultTickInterval  = time.Second
	defaultCallTimeout   = 15 * time.Second
	defaultRecordTimeout = 2 * time.Minute
	noticeBuffer         = 64
	recentNotices        = 20
)

// Config describes the local user and the session
type Config struct {
	UserID      string
	DisplayName string
	LanguageTag string
	Title       string
	RoomName    string

	// StartWithMicrophone and StartWithCamera enable the devices on entry
	StartWithMicrophone bool
	StartWithCamera     bool

	TickInterval  time.Duration
	CallTimeout   time.Duration
	RecordTimeout time.Duration
	Clock         timeline.Clock
}

// Deps are the collaborators of a Controller
type Deps struct {
	Transport   gateways.Transport
	Host        gateways.HostBridge
	Platform    gateways.DevicePlatform
	Recorder    *recorder.Recorder
	Preferences repositories.DevicePreferenceRepository
}

type command struct {
	fn    func() (any, error)
	reply chan commandResult
}

type commandResult struct {
	value any
	err   error
}

// Controller owns every component of a live session and serialises all
// mutations on a single goroutine. Blocking collaborator calls run in
// short-lived goroutines and post their results back to the loop; each class
// of request carries a generation token and results with a stale token are
// dropped.
type Controller struct {
	cfg       Config
	transport gateways.Transport
	host      gateways.HostBridge
	platform  gateways.DevicePlatform
	prefs     repositories.DevicePreferenceRepository
	logger    *zap.Logger

	registry   *device.Registry
	negotiator *capture.Negotiator
	timeline   *timeline.Timeline
	recorder   *recorder.Recorder

	commands chan command
	results  chan func()
	hotplug  chan struct{}
	picker   chan gateways.PickerRequest
	notices  chan Notice
	stopped  chan struct{}
	done     chan struct{}

	running atomic.Bool
	wg      sync.WaitGroup

	// loop owned
	loopCtx     context.Context
	localID     string
	devices     entities.DeviceLists
	enumerated  bool
	selection   entities.DeviceSelection
	applied     map[entities.DeviceKind]string
	deviceGen   uint64
	switchGen   map[entities.DeviceKind]uint64
	micGen      uint64
	camGen      uint64
	micEnabled  bool
	camEnabled  bool
	tracks      track.Composition
	recent      []NoticeView
	ending      bool
	unsubscribe func()

	// written at teardown
	mu        sync.Mutex
	final     View
	record    *entities.MeetingRecord
	recordErr error
}

var _ Service = (*Controller)(nil)

// NewController creates a controller. Run must be called to start the session.
func NewController(cfg Config, deps Deps, logger *zap.Logger) *Controller {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.RecordTimeout <= 0 {
		cfg.RecordTimeout = defaultRecordTimeout
	}
	host := deps.Host
	if host == nil {
		host = gateways.NoHostBridge{}
	}

	return &Controller{
		cfg:        cfg,
		transport:  deps.Transport,
		host:       host,
		platform:   deps.Platform,
		prefs:      deps.Preferences,
		logger:     logger,
		registry:   device.NewRegistry(deps.Platform, logger),
		negotiator: capture.NewNegotiator(deps.Transport, host, logger),
		timeline:   timeline.New(cfg.Clock),
		recorder:   deps.Recorder,
		commands:   make(chan command),
		results:    make(chan func(), 16),
		hotplug:    make(chan struct{}, 1),
		picker:     make(chan gateways.PickerRequest, 4),
		notices:    make(chan Notice, noticeBuffer),
		stopped:    make(chan struct{}),
		done:       make(chan struct{}),
		applied:    make(map[entities.DeviceKind]string),
		switchGen:  make(map[entities.DeviceKind]uint64),
		tracks:     track.Composition{Remote: []entities.TrackRef{}},
	}
}

// Run drives the session. It returns after the meeting record was handed to
// persistence, whatever ended the session.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return stdErrors.New("session already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.loopCtx = loopCtx

	c.start(loopCtx)

	ticker := time.NewTicker(c.cfg.TickInterval)
	reason := c.loop(loopCtx, ticker)
	ticker.Stop()
	cancel()

	if c.logger != nil {
		c.logger.Info("🛑 Session ending", zap.String("reason", reason))
	}
	c.teardown(ctx)
	return nil
}

func (c *Controller) start(ctx context.Context) {
	c.localID = c.transport.LocalParticipantID()
	if c.localID == "" {
		c.localID = c.cfg.UserID
	}

	for _, p := range c.transport.Participants() {
		if p.ID == c.localID {
			continue
		}
		if err := c.timeline.Join(p); err != nil && c.logger != nil {
			c.logger.Warn("failed to add participant to roster", zap.String("participant_id", p.ID), zap.Error(err))
		}
	}

	if c.prefs != nil {
		prefCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
		saved, err := c.prefs.Load(prefCtx, c.cfg.UserID)
		cancel()
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("failed to load device preferences", zap.Error(err))
			}
		} else {
			c.selection = saved
		}
	}

	c.unsubscribe = c.host.Subscribe(func(req gateways.PickerRequest) {
		select {
		case c.picker <- req:
		case <-c.stopped:
		}
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := c.platform.Watch(ctx, func() {
			select {
			case c.hotplug <- struct{}{}:
			default:
			}
		})
		if err != nil && ctx.Err() == nil && c.logger != nil {
			c.logger.Warn("device hot-plug watch stopped", zap.Error(err))
		}
	}()

	c.recompose()
	c.refreshDevices()

	if c.cfg.StartWithMicrophone {
		c.setMicrophone(true)
	}
	if c.cfg.StartWithCamera {
		c.setCamera(true)
	}

	if c.logger != nil {
		c.logger.Info("🚀 Session started",
			zap.String("room", c.cfg.RoomName),
			zap.String("participant_id", c.localID),
			zap.Bool("host_picker", c.host.Available()),
		)
	}
}

func (c *Controller) loop(ctx context.Context, ticker *time.Ticker) string {
	events := c.transport.Events()
	for {
		select {
		case <-ctx.Done():
			return "context done"

		case <-ticker.C:
			c.timeline.Tick()

		case <-c.hotplug:
			c.refreshDevices()

		case req := <-c.picker:
			c.runShareOps(c.negotiator.OnPickerRequest(req))

		case ev, ok := <-events:
			if !ok {
				return "transport closed"
			}
			if c.handleTransportEvent(ev) {
				return "transport disconnected"
			}

		case cmd := <-c.commands:
			value, err := cmd.fn()
			cmd.reply <- commandResult{value: value, err: err}
			if c.ending {
				return "ended by user"
			}

		case apply := <-c.results:
			apply()
		}
	}
}

func (c *Controller) teardown(parent context.Context) {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.timeline.Close()

	c.mu.Lock()
	c.final = c.view()
	c.mu.Unlock()
	close(c.stopped)

	in := recorder.Input{
		Title:       c.cfg.Title,
		RoomName:    c.cfg.RoomName,
		CurrentUser: c.currentUser(),
		Snapshot:    c.timeline.Snapshot(),
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.cfg.RecordTimeout)
	record, err := c.recorder.Record(recordCtx, in)
	cancel()

	c.transport.Disconnect()
	c.wg.Wait()

	c.mu.Lock()
	c.record = record
	c.recordErr = err
	if record != nil {
		c.final.RecordID = record.ID.String()
	}
	c.final.RecordPending = err != nil && record != nil
	c.mu.Unlock()

	if err != nil {
		c.notify(err)
	}
	close(c.done)
	close(c.notices)
}

func (c *Controller) currentUser() entities.Participant {
	return entities.Participant{
		ID:          c.localID,
		DisplayName: c.cfg.DisplayName,
		Muted:       !c.micEnabled,
		LanguageTag: c.cfg.LanguageTag,
	}
}

// spawn runs call off the loop. The func it returns is applied on the loop.
func (c *Controller) spawn(call func(ctx context.Context) func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.loopCtx, c.cfg.CallTimeout)
		defer cancel()

		apply := call(ctx)
		select {
		case c.results <- apply:
		case <-c.stopped:
		}
	}()
}

// do runs fn on the loop and waits for its result
func (c *Controller) do(ctx context.Context, fn func() (any, error)) (any, error) {
	select {
	case <-c.stopped:
		return nil, usecaseErrors.ErrSessionEnded
	default:
	}
	if !c.running.Load() {
		return nil, usecaseErrors.ErrSessionNotStarted
	}

	cmd := command{fn: fn, reply: make(chan commandResult, 1)}
	select {
	case c.commands <- cmd:
	case <-c.stopped:
		return nil, usecaseErrors.ErrSessionEnded
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-cmd.reply:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Controller) notify(err error) {
	if err == nil {
		return
	}

	level := NoticeError
	if errors.HasCode(err, errors.ErrorCode_SHARE_CANCELLED) || errors.HasCode(err, errors.ErrorCode_PERMISSION_DENIED) {
		level = NoticeInfo
	}

	if c.logger != nil {
		if level == NoticeInfo {
			c.logger.Info("session notice", zap.Error(err))
		} else {
			c.logger.Error("session error", zap.Error(err))
		}
	}

	n := Notice{Level: level, Err: err, At: time.Now()}
	c.recent = append(c.recent, noticeView(n))
	if len(c.recent) > recentNotices {
		c.recent = c.recent[len(c.recent)-recentNotices:]
	}

	select {
	case c.notices <- n:
	default:
		if c.logger != nil {
			c.logger.Warn("notice dropped, no reader", zap.Error(err))
		}
	}
}

func noticeView(n Notice) NoticeView {
	v := NoticeView{Level: n.Level, Message: n.Err.Error(), At: n.At}
	var appErr errors.AppError
	if stdErrors.As(n.Err, &appErr) {
		v.Code = appErr.Code.String()
		v.Message = appErr.Message
	}
	return v
}

func (c *Controller) view() View {
	snap := c.timeline.Snapshot()
	recent := make([]NoticeView, len(c.recent))
	copy(recent, c.recent)

	return View{
		RoomName:           c.cfg.RoomName,
		LocalParticipantID: c.localID,
		Devices:            c.devices,
		Selection:          c.selection,
		MicrophoneEnabled:  c.micEnabled,
		CameraEnabled:      c.camEnabled,
		Share:              c.shareView(),
		Tracks:             c.tracks,
		Roster:             snap.Roster,
		Chat:               snap.Chat,
		Translations:       snap.Translations,
		Terms:              snap.Terms,
		ElapsedSeconds:     snap.ElapsedSeconds,
		Duration:           timeline.FormatDuration(snap.ElapsedSeconds),
		Notices:            recent,
		Ended:              c.timeline.Closed(),
	}
}

func (c *Controller) shareView() ShareView {
	return ShareView{
		State:    c.negotiator.State().String(),
		Sharing:  c.negotiator.Sharing(),
		SourceID: c.negotiator.SourceID(),
		Sources:  c.negotiator.Sources(),
	}
}

// Notices implements Service
func (c *Controller) Notices() <-chan Notice { return c.notices }

// Done implements Service
func (c *Controller) Done() <-chan struct{} { return c.done }

// State implements Service
func (c *Controller) State(ctx context.Context) (View, error) {
	v, err := c.do(ctx, func() (any, error) {
		return c.view(), nil
	})
	if stdErrors.Is(err, usecaseErrors.ErrSessionEnded) {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.final, nil
	}
	if err != nil {
		return View{}, err
	}
	return v.(View), nil
}

// End implements Service. Calling it again returns the same record.
func (c *Controller) End(ctx context.Context) (*entities.MeetingRecord, error) {
	_, err := c.do(ctx, func() (any, error) {
		c.ending = true
		return nil, nil
	})
	if err != nil && !stdErrors.Is(err, usecaseErrors.ErrSessionEnded) {
		return nil, err
	}

	select {
	case <-c.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record, c.recordErr
}

// RetryRecord implements Service
func (c *Controller) RetryRecord(ctx context.Context) (*entities.MeetingRecord, error) {
	record, err := c.recorder.RetryPending(ctx)
	if err != nil {
		return record, err
	}

	c.mu.Lock()
	c.recordErr = nil
	c.final.RecordPending = false
	c.mu.Unlock()
	return record, nil
}
