package presenter

import (
	"github.com/johnquangdev/meeting-session/internal/adapter/dto/record"
	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/usecase/timeline"
)

// ToRecordSummaryResponse converts a MeetingRecord to its list row
func ToRecordSummaryResponse(r *entities.MeetingRecord) *record.RecordSummaryResponse {
	if r == nil {
		return nil
	}

	return &record.RecordSummaryResponse{
		ID:               r.ID.String(),
		Title:            r.Title,
		RoomName:         r.RoomName,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		DurationSeconds:  r.DurationSeconds,
		Duration:         timeline.FormatDuration(r.DurationSeconds),
		ParticipantCount: r.ParticipantCount(),
	}
}

// ToRecordResponse converts a MeetingRecord to the full response DTO
func ToRecordResponse(r *entities.MeetingRecord) *record.RecordResponse {
	if r == nil {
		return nil
	}

	return &record.RecordResponse{
		RecordSummaryResponse: *ToRecordSummaryResponse(r),
		Participants:          nonNil(r.Participants.Data()),
		ChatTranscript:        nonNil(r.ChatTranscript.Data()),
		TranslationTranscript: nonNil(r.TranslationTranscript.Data()),
		Terms:                 nonNil(r.Terms.Data()),
		Summary:               r.Summary.Data(),
		CreatedAt:             r.CreatedAt,
	}
}

// ToListRecordsResponse converts records to the list response
func ToListRecordsResponse(records []*entities.MeetingRecord) *record.ListRecordsResponse {
	rows := make([]*record.RecordSummaryResponse, 0, len(records))
	for _, r := range records {
		rows = append(rows, ToRecordSummaryResponse(r))
	}
	return &record.ListRecordsResponse{Records: rows, Count: len(rows)}
}

// nonNil keeps empty transcripts as [] in JSON
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
