package timeline

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
)

// Clock returns the current time
type Clock func() time.Time

// Snapshot is a point-in-time copy of the timeline
type Snapshot struct {
	StartedAt      time.Time                   `json:"started_at"`
	ElapsedSeconds int                         `json:"elapsed_seconds"`
	Chat           []entities.ChatMessage      `json:"chat"`
	Translations   []entities.TranslationEntry `json:"translations"`
	Terms          []entities.TermExplanation  `json:"terms"`
	Roster         []entities.Participant      `json:"roster"`
}

// Timeline accumulates the ephemeral artifacts of one session: three
// append-only logs, the roster and the elapsed duration.
// Entries are stamped at append time and stamps never go backwards, so
// insertion order is chronological order.
type Timeline struct {
	mu  sync.RWMutex
	now Clock

	startedAt time.Time
	last      time.Time
	elapsed   int
	closed    bool

	chat         []entities.ChatMessage
	translations []entities.TranslationEntry
	terms        []entities.TermExplanation
	roster       map[string]entities.Participant
}

// New creates a timeline started now
func New(clock Clock) *Timeline {
	if clock == nil {
		clock = time.Now
	}
	start := clock()
	return &Timeline{
		now:       clock,
		startedAt: start,
		last:      start,
		roster:    make(map[string]entities.Participant),
	}
}

// stamp returns the append timestamp. Must be called with mu held.
func (t *Timeline) stamp() time.Time {
	ts := t.now()
	if ts.Before(t.last) {
		ts = t.last
	}
	t.last = ts
	return ts
}

// AppendChat appends a chat message and returns it with its timestamp
func (t *Timeline) AppendChat(msg entities.ChatMessage) (entities.ChatMessage, error) {
	if strings.TrimSpace(msg.Body) == "" && msg.Attachment == nil {
		return msg, entities.ErrEmptyMessage
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return msg, entities.ErrTimelineClosed
	}
	msg.Timestamp = t.stamp()
	t.chat = append(t.chat, msg)
	return msg, nil
}

// AppendTranslation appends a translation entry
func (t *Timeline) AppendTranslation(entry entities.TranslationEntry) (entities.TranslationEntry, error) {
	if !entry.SourceLanguage.IsSupported() {
		return entry, fmt.Errorf("%w: %q", entities.ErrUnsupportedLang, entry.SourceLanguage)
	}
	if strings.TrimSpace(entry.SourceText) == "" {
		return entry, entities.ErrEmptyMessage
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return entry, entities.ErrTimelineClosed
	}
	entry.Timestamp = t.stamp()
	t.translations = append(t.translations, entry)
	return entry, nil
}

// AppendTerm appends a term explanation
func (t *Timeline) AppendTerm(term entities.TermExplanation) (entities.TermExplanation, error) {
	if strings.TrimSpace(term.Term) == "" {
		return term, entities.ErrEmptyMessage
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return term, entities.ErrTimelineClosed
	}
	term.Timestamp = t.stamp()
	t.terms = append(t.terms, term)
	return term, nil
}

// Join adds or replaces a participant in the roster
func (t *Timeline) Join(p entities.Participant) error {
	if p.ID == "" {
		return entities.ErrParticipantEmpty
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return entities.ErrTimelineClosed
	}
	if existing, ok := t.roster[p.ID]; ok && p.JoinedAt.IsZero() {
		p.JoinedAt = existing.JoinedAt
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = t.now()
	}
	t.roster[p.ID] = p
	return nil
}

// Leave removes a participant from the roster
func (t *Timeline) Leave(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return entities.ErrTimelineClosed
	}
	delete(t.roster, id)
	return nil
}

// SetMuted records a mute change. Unknown participants are ignored.
func (t *Timeline) SetMuted(id string, muted bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return entities.ErrTimelineClosed
	}
	p, ok := t.roster[id]
	if !ok {
		return nil
	}
	p.SetMuted(muted)
	t.roster[id] = p
	return nil
}

// Tick advances the duration by one second and returns the new value
func (t *Timeline) Tick() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.closed {
		t.elapsed++
	}
	return t.elapsed
}

func (t *Timeline) Elapsed() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.elapsed
}

// Close rejects every later write. It is safe to call more than once.
func (t *Timeline) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

// Closed reports whether Close was called
func (t *Timeline) Closed() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// Snapshot copies the current state. The roster is ordered by join time.
func (t *Timeline) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := Snapshot{
		StartedAt:      t.startedAt,
		ElapsedSeconds: t.elapsed,
		Chat:           make([]entities.ChatMessage, len(t.chat)),
		Translations:   make([]entities.TranslationEntry, len(t.translations)),
		Terms:          make([]entities.TermExplanation, len(t.terms)),
		Roster:         make([]entities.Participant, 0, len(t.roster)),
	}
	copy(snap.Chat, t.chat)
	copy(snap.Translations, t.translations)
	copy(snap.Terms, t.terms)
	for _, p := range t.roster {
		snap.Roster = append(snap.Roster, p)
	}
	sort.Slice(snap.Roster, func(i, j int) bool {
		a, b := snap.Roster[i], snap.Roster[j]
		if !a.JoinedAt.Equal(b.JoinedAt) {
			return a.JoinedAt.Before(b.JoinedAt)
		}
		return a.ID < b.ID
	})
	return snap
}

// FormatDuration renders seconds as MM:SS. Minutes are not wrapped into hours.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
