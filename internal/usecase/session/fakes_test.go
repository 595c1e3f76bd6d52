package session

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/domain/gateways"
)

type fakeTransport struct {
	mu           sync.Mutex
	localID      string
	participants []entities.Participant
	tracks       []entities.TrackRef
	sharing      bool
	mic          bool
	cam          bool
	switchErr    map[entities.DeviceKind]error
	switchHold   map[entities.DeviceKind]chan struct{}
	switched     map[entities.DeviceKind]string
	history      map[entities.DeviceKind][]string
	shareOpts    []entities.ScreenShareOptions
	sent         []entities.ChatMessage
	disconnects  int
	events       chan gateways.TransportEvent
}

func newFakeTransport(localID string, remotes ...entities.Participant) *fakeTransport {
	return &fakeTransport{
		localID:      localID,
		participants: remotes,
		switchErr:    make(map[entities.DeviceKind]error),
		switchHold:   make(map[entities.DeviceKind]chan struct{}),
		switched:     make(map[entities.DeviceKind]string),
		history:      make(map[entities.DeviceKind][]string),
		events:       make(chan gateways.TransportEvent, 64),
	}
}

func (t *fakeTransport) emit(ev gateways.TransportEvent) {
	t.events <- ev
}

func (t *fakeTransport) LocalParticipantID() string { return t.localID }

func (t *fakeTransport) Tracks() []entities.TrackRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]entities.TrackRef, len(t.tracks))
	copy(out, t.tracks)
	return out
}

func (t *fakeTransport) Participants() []entities.Participant {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.participants
}

func (t *fakeTransport) ScreenShareEnabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sharing
}

func (t *fakeTransport) SwitchDevice(_ context.Context, kind entities.DeviceKind, id string) error {
	t.mu.Lock()
	hold := t.switchHold[kind]
	delete(t.switchHold, kind)
	t.mu.Unlock()
	if hold != nil {
		<-hold
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.switchErr[kind]; err != nil {
		return err
	}
	t.switched[kind] = id
	t.history[kind] = append(t.history[kind], id)
	return nil
}

func (t *fakeTransport) switchHistory(kind entities.DeviceKind) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.history[kind]))
	copy(out, t.history[kind])
	return out
}

func (t *fakeTransport) switchedTo(kind entities.DeviceKind) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.switched[kind]
}

// holdSwitch blocks the next switch of kind until the returned func is called
func (t *fakeTransport) holdSwitch(kind entities.DeviceKind) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	release := make(chan struct{})
	t.switchHold[kind] = release
	return func() { close(release) }
}

func (t *fakeTransport) failSwitch(kind entities.DeviceKind, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.switchErr[kind] = err
}

func (t *fakeTransport) SetMicrophoneEnabled(_ context.Context, enabled bool) error {
	t.mu.Lock()
	t.mic = enabled
	t.setLocalTrack(entities.TrackSourceMicrophone, enabled)
	t.mu.Unlock()
	t.emit(gateways.TransportEvent{Kind: gateways.TransportTracksChanged})
	return nil
}

func (t *fakeTransport) SetCameraEnabled(_ context.Context, enabled bool) error {
	t.mu.Lock()
	t.cam = enabled
	t.setLocalTrack(entities.TrackSourceCamera, enabled)
	t.mu.Unlock()
	t.emit(gateways.TransportEvent{Kind: gateways.TransportTracksChanged})
	return nil
}

func (t *fakeTransport) SetScreenShareEnabled(_ context.Context, enabled bool, opts entities.ScreenShareOptions) error {
	t.mu.Lock()
	t.sharing = enabled
	t.shareOpts = append(t.shareOpts, opts)
	t.setLocalTrack(entities.TrackSourceScreenShare, enabled)
	t.mu.Unlock()
	t.emit(gateways.TransportEvent{Kind: gateways.TransportTracksChanged})
	return nil
}

// setLocalTrack must be called with mu held
func (t *fakeTransport) setLocalTrack(source entities.TrackSource, on bool) {
	kept := t.tracks[:0]
	for _, tr := range t.tracks {
		if tr.Local && tr.Source == source {
			continue
		}
		kept = append(kept, tr)
	}
	t.tracks = kept
	if on {
		t.tracks = append(t.tracks, entities.TrackRef{
			SID:           "TR_" + uuid.NewString()[:8],
			ParticipantID: t.localID,
			Local:         true,
			Source:        source,
			Subscription:  entities.SubscriptionSubscribed,
		})
	}
}

func (t *fakeTransport) SendChat(_ context.Context, msg entities.ChatMessage) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, msg)
	return nil
}

func (t *fakeTransport) sentChat() []entities.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]entities.ChatMessage, len(t.sent))
	copy(out, t.sent)
	return out
}

func (t *fakeTransport) Events() <-chan gateways.TransportEvent { return t.events }

func (t *fakeTransport) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnects++
}

// fakeHost answers OpenPicker with a fixed source list
type fakeHost struct {
	mu         sync.Mutex
	available  bool
	sources    []entities.CaptureSource
	handler    func(gateways.PickerRequest)
	selections []string
}

func (h *fakeHost) Available() bool { return h.available }

func (h *fakeHost) Subscribe(handler func(gateways.PickerRequest)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.handler = nil
	}
}

func (h *fakeHost) OpenPicker(context.Context) error {
	h.mu.Lock()
	handler := h.handler
	h.mu.Unlock()
	if handler == nil {
		return errors.New("host not subscribed")
	}
	handler(gateways.PickerRequest{Sources: h.sources})
	return nil
}

func (h *fakeHost) SelectSource(_ context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selections = append(h.selections, id)
	return nil
}

func (h *fakeHost) selected() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.selections))
	copy(out, h.selections)
	return out
}

type fakePlatform struct {
	mu       sync.Mutex
	devices  []entities.Device
	active   map[entities.DeviceKind]string
	onChange func()
}

func (p *fakePlatform) Probe(context.Context) error { return nil }

func (p *fakePlatform) Enumerate(context.Context) ([]entities.Device, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]entities.Device, len(p.devices))
	copy(out, p.devices)
	return out, nil
}

func (p *fakePlatform) ActiveDevice(kind entities.DeviceKind) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.active[kind]
	return id, ok
}

func (p *fakePlatform) Watch(ctx context.Context, onChange func()) error {
	p.mu.Lock()
	p.onChange = onChange
	p.mu.Unlock()
	<-ctx.Done()
	return nil
}

// replug swaps the device list and fires a hot-plug notification
func (p *fakePlatform) replug(devices []entities.Device, active map[entities.DeviceKind]string) {
	p.mu.Lock()
	p.devices = devices
	p.active = active
	onChange := p.onChange
	p.mu.Unlock()
	if onChange != nil {
		onChange()
	}
}

func (p *fakePlatform) watching() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onChange != nil
}

type memoryRecords struct {
	mu      sync.Mutex
	fail    bool
	records []*entities.MeetingRecord
}

func (r *memoryRecords) Append(_ context.Context, record *entities.MeetingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("connection refused")
	}
	r.records = append(r.records, record)
	return nil
}

func (r *memoryRecords) FindByID(_ context.Context, id uuid.UUID) (*entities.MeetingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *memoryRecords) List(context.Context, int) ([]*entities.MeetingRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records, nil
}

func (r *memoryRecords) setFail(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = fail
}

func (r *memoryRecords) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

type memoryPrefs struct {
	mu    sync.Mutex
	saved map[string]entities.DeviceSelection
}

func (p *memoryPrefs) Load(_ context.Context, userID string) (entities.DeviceSelection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved[userID], nil
}

func (p *memoryPrefs) Save(_ context.Context, userID string, sel entities.DeviceSelection) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saved == nil {
		p.saved = make(map[string]entities.DeviceSelection)
	}
	p.saved[userID] = sel
	return nil
}

func (p *memoryPrefs) get(userID string) entities.DeviceSelection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved[userID]
}
