package record

import (
	"time"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
)

// RecordSummaryResponse is one row of the record list
type RecordSummaryResponse struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	RoomName         string    `json:"room_name"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	DurationSeconds  int       `json:"duration_seconds"`
	Duration         string    `json:"duration"`
	ParticipantCount int       `json:"participant_count"`
}

// RecordResponse is the full meeting record
type RecordResponse struct {
	RecordSummaryResponse
	Participants          []entities.ParticipantSnapshot `json:"participants"`
	ChatTranscript        []entities.ChatMessage         `json:"chat_transcript"`
	TranslationTranscript []entities.TranslationRecord   `json:"translation_transcript"`
	Terms                 []entities.TermExplanation     `json:"terms"`
	Summary               entities.MeetingSummary        `json:"summary"`
	CreatedAt             time.Time                      `json:"created_at"`
}

// ListRecordsResponse wraps the record list
type ListRecordsResponse struct {
	Records []*RecordSummaryResponse `json:"records"`
	Count   int                      `json:"count"`
}

// ArchiveResponse is a temporary download link for an archived record
type ArchiveResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
