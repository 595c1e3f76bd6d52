package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeetingSummary is the structured summary produced for a finished session
type MeetingSummary struct {
	KeyPoints   []string `json:"key_points"`
	ActionItems []string `json:"action_items"`
	Decisions   []string `json:"decisions"`
}

// TranslationRecord is a translation entry with resolved language labels
type TranslationRecord struct {
	ID                  string    `json:"id"`
	Speaker             string    `json:"speaker"`
	SourceText          string    `json:"source_text"`
	TargetText          string    `json:"target_text"`
	SourceLanguage      Language  `json:"source_language"`
	SourceLanguageLabel string    `json:"source_language_label"`
	TargetLanguageLabel string    `json:"target_language_label"`
	Timestamp           time.Time `json:"timestamp"`
}

// MeetingRecord is the durable summary of one completed session
type MeetingRecord struct {
	ID                    uuid.UUID                                 `json:"id" gorm:"type:uuid;primary_key"`
	Title                 string                                    `json:"title" gorm:"type:varchar(255);not null"`
	RoomName              string                                    `json:"room_name" gorm:"type:varchar(255);index"`
	StartTime             time.Time                                 `json:"start_time" gorm:"not null"`
	EndTime               time.Time                                 `json:"end_time" gorm:"not null"`
	DurationSeconds       int                                       `json:"duration_seconds"`
	Participants          datatypes.JSONType[[]ParticipantSnapshot] `json:"participants" gorm:"type:jsonb"`
	ChatTranscript        datatypes.JSONType[[]ChatMessage]         `json:"chat_transcript" gorm:"type:jsonb"`
	TranslationTranscript datatypes.JSONType[[]TranslationRecord]   `json:"translation_transcript" gorm:"type:jsonb"`
	Terms                 datatypes.JSONType[[]TermExplanation]     `json:"terms" gorm:"type:jsonb"`
	Summary               datatypes.JSONType[MeetingSummary]        `json:"summary" gorm:"type:jsonb"`
	CreatedAt             time.Time                                 `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for MeetingRecord
func (MeetingRecord) TableName() string {
	return "meeting_records"
}

// ParticipantCount returns the number of participants in the snapshot
func (r *MeetingRecord) ParticipantCount() int {
	return len(r.Participants.Data())
}
