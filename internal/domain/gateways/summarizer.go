package gateways

import (
	"context"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
)

// Summarizer produces the structured summary of a finished session
type Summarizer interface {
	Summarize(ctx context.Context, roster []entities.Participant, chat []entities.ChatMessage, translations []entities.TranslationEntry) (entities.MeetingSummary, error)
}

// NoopSummarizer returns an empty summary
type NoopSummarizer struct{}

func (NoopSummarizer) Summarize(context.Context, []entities.Participant, []entities.ChatMessage, []entities.TranslationEntry) (entities.MeetingSummary, error) {
	return entities.MeetingSummary{
		KeyPoints:   []string{},
		ActionItems: []string{},
		Decisions:   []string{},
	}, nil
}
