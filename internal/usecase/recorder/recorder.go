package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-session/errors"
	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/domain/gateways"
	"github.com/johnquangdev/meeting-session/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/meeting-session/internal/usecase/errors"
	"github.com/johnquangdev/meeting-session/internal/usecase/timeline"
	"github.com/johnquangdev/meeting-session/pkg/retry"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Input is everything a meeting record is built from
type Input struct {
	Title       string
	RoomName    string
	CurrentUser entities.Participant
	Snapshot    timeline.Snapshot
}

// Recorder builds the meeting record once per session and hands it to persistence.
// A record that could not be stored is kept until RetryPending succeeds.
type Recorder struct {
	repo       repositories.MeetingRecordRepository
	summarizer gateways.Summarizer
	policy     retry.Policy
	logger     *zap.Logger

	newID func() uuid.UUID
	now   func() time.Time

	mu         sync.Mutex
	recorded   bool
	persisting bool
	pending    *entities.MeetingRecord
}

// NewRecorder creates a new session recorder
func NewRecorder(
	repo repositories.MeetingRecordRepository,
	summarizer gateways.Summarizer,
	policy retry.Policy,
	logger *zap.Logger,
) *Recorder {
	if summarizer == nil {
		summarizer = gateways.NoopSummarizer{}
	}
	return &Recorder{
		repo:       repo,
		summarizer: summarizer,
		policy:     policy,
		logger:     logger,
		newID:      uuid.New,
		now:        time.Now,
	}
}

// Record summarizes, finalizes and appends the record. It runs at most once;
// later calls return ErrAlreadyRecorded. On a persistence failure the record is
// returned together with a RecordPersistFailed error and kept as pending.
func (r *Recorder) Record(ctx context.Context, in Input) (*entities.MeetingRecord, error) {
	r.mu.Lock()
	if r.recorded {
		r.mu.Unlock()
		return nil, usecaseErrors.ErrAlreadyRecorded
	}
	r.recorded = true
	r.persisting = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.persisting = false
		r.mu.Unlock()
	}()

	participants := participantsOf(in)
	summary, err := r.summarizer.Summarize(ctx, participants, in.Snapshot.Chat, in.Snapshot.Translations)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("⚠️ summary generation failed, storing record without summary", zap.Error(err))
		}
		summary = entities.MeetingSummary{}
	}

	record := Finalize(r.newID(), r.now(), in, summary)

	if err := r.persist(ctx, record); err != nil {
		r.mu.Lock()
		r.pending = record
		r.mu.Unlock()

		if r.logger != nil {
			r.logger.Error("❌ Failed to persist meeting record, keeping it pending",
				zap.String("record_id", record.ID.String()),
				zap.Error(err),
			)
		}
		return record, errors.ErrRecordPersistFailed(record.ID.String(), err)
	}

	if r.logger != nil {
		r.logger.Info("✅ Meeting record stored",
			zap.String("record_id", record.ID.String()),
			zap.Int("participants", record.ParticipantCount()),
			zap.Int("chat", len(record.ChatTranscript.Data())),
			zap.Int("translations", len(record.TranslationTranscript.Data())),
		)
	}
	return record, nil
}

// RetryPending appends the pending record again
func (r *Recorder) RetryPending(ctx context.Context) (*entities.MeetingRecord, error) {
	r.mu.Lock()
	if r.persisting {
		r.mu.Unlock()
		return nil, usecaseErrors.ErrRecordInProgress
	}
	record := r.pending
	if record == nil {
		r.mu.Unlock()
		return nil, usecaseErrors.ErrNoPendingRecord
	}
	r.persisting = true
	r.mu.Unlock()

	err := r.persist(ctx, record)

	r.mu.Lock()
	r.persisting = false
	if err == nil {
		r.pending = nil
	}
	r.mu.Unlock()

	if err != nil {
		return record, errors.ErrRecordPersistFailed(record.ID.String(), err)
	}
	return record, nil
}

// Pending returns the record waiting for a retry, if any
func (r *Recorder) Pending() *entities.MeetingRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

func (r *Recorder) persist(ctx context.Context, record *entities.MeetingRecord) error {
	return retry.Do(ctx, r.policy, "append meeting record", r.logger, func(ctx context.Context) error {
		if err := r.repo.Append(ctx, record); err != nil {
			return fmt.Errorf("failed to append meeting record: %w", err)
		}
		return nil
	})
}

// Finalize builds the meeting record. It depends only on its arguments:
// calling it twice with the same input yields equal records.
func Finalize(id uuid.UUID, endTime time.Time, in Input, summary entities.MeetingSummary) *entities.MeetingRecord {
	snap := in.Snapshot

	participants := participantsOf(in)
	snapshots := make([]entities.ParticipantSnapshot, 0, len(participants))
	for _, p := range participants {
		snapshots = append(snapshots, p.Snapshot(p.ID == in.CurrentUser.ID))
	}

	chat := make([]entities.ChatMessage, len(snap.Chat))
	copy(chat, snap.Chat)

	translations := make([]entities.TranslationRecord, 0, len(snap.Translations))
	for _, t := range snap.Translations {
		translations = append(translations, entities.TranslationRecord{
			ID:                  t.ID,
			Speaker:             t.Speaker,
			SourceText:          t.SourceText,
			TargetText:          t.TargetText,
			SourceLanguage:      t.SourceLanguage,
			SourceLanguageLabel: t.SourceLanguage.Label(),
			TargetLanguageLabel: t.SourceLanguage.Counterpart().Label(),
			Timestamp:           t.Timestamp,
		})
	}

	terms := make([]entities.TermExplanation, len(snap.Terms))
	copy(terms, snap.Terms)

	title := in.Title
	if title == "" {
		title = fmt.Sprintf("Meeting %s", snap.StartedAt.Format("2006-01-02 15:04"))
	}

	return &entities.MeetingRecord{
		ID:                    id,
		Title:                 title,
		RoomName:              in.RoomName,
		StartTime:             snap.StartedAt,
		EndTime:               endTime,
		DurationSeconds:       snap.ElapsedSeconds,
		Participants:          datatypes.NewJSONType(snapshots),
		ChatTranscript:        datatypes.NewJSONType(chat),
		TranslationTranscript: datatypes.NewJSONType(translations),
		Terms:                 datatypes.NewJSONType(terms),
		Summary:               datatypes.NewJSONType(normalize(summary)),
		CreatedAt:             endTime,
	}
}

// participantsOf returns the current user followed by the roster, without duplicates
func participantsOf(in Input) []entities.Participant {
	out := make([]entities.Participant, 0, len(in.Snapshot.Roster)+1)
	seen := make(map[string]bool, len(in.Snapshot.Roster)+1)

	if in.CurrentUser.ID != "" {
		out = append(out, in.CurrentUser)
		seen[in.CurrentUser.ID] = true
	}
	for _, p := range in.Snapshot.Roster {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

func normalize(s entities.MeetingSummary) entities.MeetingSummary {
	if s.KeyPoints == nil {
		s.KeyPoints = []string{}
	}
	if s.ActionItems == nil {
		s.ActionItems = []string{}
	}
	if s.Decisions == nil {
		s.Decisions = []string{}
	}
	return s
}
