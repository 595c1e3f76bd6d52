package entities

import (
	"time"

	"github.com/google/uuid"
)

// Attachment references a file shared alongside a chat message
type Attachment struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
}

// ChatMessage is one entry of the chat log
type ChatMessage struct {
	ID         string      `json:"id"`
	Sender     string      `json:"sender"`
	Body       string      `json:"body"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// NewChatMessage creates a chat message with a fresh id. The timestamp is
// assigned by the timeline when the message is appended.
func NewChatMessage(sender, body string, attachment *Attachment) ChatMessage {
	return ChatMessage{
		ID:         uuid.NewString(),
		Sender:     sender,
		Body:       body,
		Attachment: attachment,
	}
}

// TranslationEntry is one translated utterance
type TranslationEntry struct {
	ID             string    `json:"id"`
	Speaker        string    `json:"speaker"`
	SourceText     string    `json:"source_text"`
	SourceLanguage Language  `json:"source_language"`
	TargetText     string    `json:"target_text"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewTranslationEntry creates a translation entry with a fresh id
func NewTranslationEntry(speaker, sourceText string, sourceLanguage Language, targetText string) TranslationEntry {
	return TranslationEntry{
		ID:             uuid.NewString(),
		Speaker:        speaker,
		SourceText:     sourceText,
		SourceLanguage: sourceLanguage,
		TargetText:     targetText,
	}
}

// TermExplanation explains a term that came up in the conversation
type TermExplanation struct {
	ID              string    `json:"id"`
	Term            string    `json:"term"`
	Explanation     string    `json:"explanation"`
	OriginReference string    `json:"origin_reference,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewTermExplanation creates a term explanation with a fresh id
func NewTermExplanation(term, explanation, origin string) TermExplanation {
	return TermExplanation{
		ID:              uuid.NewString(),
		Term:            term,
		Explanation:     explanation,
		OriginReference: origin,
	}
}
