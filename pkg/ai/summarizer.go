package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/domain/gateways"
)

const summarySystemPrompt = `You summarize meetings. Answer with one JSON object and nothing else:
{"key_points": [string], "action_items": [string], "decisions": [string]}
Write every item as one short sentence in the language most participants used.
Use empty arrays when there is nothing to report.`

// Summarizer builds meeting summaries with Groq
type Summarizer struct {
	client *GroqClient
	logger *zap.Logger
}

var _ gateways.Summarizer = (*Summarizer)(nil)

// NewSummarizer creates a summarizer backed by client
func NewSummarizer(client *GroqClient, logger *zap.Logger) *Summarizer {
	return &Summarizer{client: client, logger: logger}
}

// Summarize implements gateways.Summarizer
func (s *Summarizer) Summarize(ctx context.Context, roster []entities.Participant, chat []entities.ChatMessage, translations []entities.TranslationEntry) (entities.MeetingSummary, error) {
	if len(chat) == 0 && len(translations) == 0 {
		return gateways.NoopSummarizer{}.Summarize(ctx, roster, chat, translations)
	}

	transcript := FormatTranscript(roster, chat, translations)
	if s.logger != nil {
		s.logger.Info("🤖 Generating meeting summary with Groq",
			zap.Int("chat_count", len(chat)),
			zap.Int("translation_count", len(translations)),
			zap.Int("text_length", len(transcript)),
		)
	}

	content, err := s.client.Complete(ctx, []ChatMessage{
		{Role: "system", Content: summarySystemPrompt},
		{Role: "user", Content: transcript},
	}, true)
	if err != nil {
		return entities.MeetingSummary{}, fmt.Errorf("failed to generate summary: %w", err)
	}

	summary, err := ParseSummary(content)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("❌ Failed to parse Groq JSON response",
				zap.Error(err),
				zap.String("raw_response", content[:min(500, len(content))]),
			)
		}
		return entities.MeetingSummary{}, err
	}
	return summary, nil
}

// FormatTranscript renders the session logs as plain text for the model
func FormatTranscript(roster []entities.Participant, chat []entities.ChatMessage, translations []entities.TranslationEntry) string {
	names := make(map[string]string, len(roster))
	var b strings.Builder

	b.WriteString("Participants:\n")
	for _, p := range roster {
		names[p.ID] = p.Name()
		fmt.Fprintf(&b, "- %s\n", p.Name())
	}

	if len(chat) > 0 {
		b.WriteString("\nChat:\n")
		for _, m := range chat {
			fmt.Fprintf(&b, "[%s] %s: %s\n", m.Timestamp.Format("15:04:05"), nameOf(names, m.Sender), m.Body)
		}
	}

	if len(translations) > 0 {
		b.WriteString("\nSpoken (with translation):\n")
		for _, t := range translations {
			fmt.Fprintf(&b, "[%s] %s (%s): %s / %s\n",
				t.Timestamp.Format("15:04:05"),
				nameOf(names, t.Speaker),
				t.SourceLanguage.Label(),
				t.SourceText,
				t.TargetText,
			)
		}
	}
	return b.String()
}

func nameOf(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return id
}

// ParseSummary decodes the model output into a MeetingSummary
func ParseSummary(content string) (entities.MeetingSummary, error) {
	// Groq đôi khi bọc JSON trong markdown code block
	content = extractJSON(content)

	var summary entities.MeetingSummary
	if err := json.Unmarshal([]byte(content), &summary); err != nil {
		return entities.MeetingSummary{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return summary, nil
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
