package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GroqClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewGroqClient(&config.GroqConfig{
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/openai/v1/",
		Model:       "llama-3.3-70b-versatile",
		Temperature: 0.2,
		MaxTokens:   256,
		Timeout:     time.Second,
	})
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

func TestSummarize(t *testing.T) {
	var got ChatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		reply(w, "```json\n{\"key_points\":[\"Release moved to Friday\"],\"action_items\":[\"Bob updates the plan\"],\"decisions\":[]}\n```")
	})

	roster := []entities.Participant{{ID: "alice", DisplayName: "Alice"}, {ID: "bob", DisplayName: "Bob"}}
	chat := []entities.ChatMessage{{ID: "m1", Sender: "alice", Body: "Can we move the release?"}}
	translations := []entities.TranslationEntry{{ID: "t1", Speaker: "bob", SourceText: "金曜日にしましょう", SourceLanguage: "ja", TargetText: "금요일로 합시다"}}

	summary, err := NewSummarizer(client, nil).Summarize(context.Background(), roster, chat, translations)
	require.NoError(t, err)
	require.Equal(t, []string{"Release moved to Friday"}, summary.KeyPoints)
	require.Equal(t, []string{"Bob updates the plan"}, summary.ActionItems)
	require.Empty(t, summary.Decisions)

	require.Equal(t, "llama-3.3-70b-versatile", got.Model)
	require.NotNil(t, got.ResponseFormat)
	require.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	require.Contains(t, got.Messages[1].Content, "Alice: Can we move the release?")
	require.Contains(t, got.Messages[1].Content, "Bob (Japanese): 金曜日にしましょう")
}

func TestSummarizeSkipsEmptySession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	summary, err := NewSummarizer(client, nil).Summarize(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, summary.KeyPoints)
	require.Empty(t, summary.KeyPoints)
}

func TestSummarizeUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	})

	chat := []entities.ChatMessage{{ID: "m1", Sender: "alice", Body: "hi"}}
	_, err := NewSummarizer(client, nil).Summarize(context.Background(), nil, chat, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestParseSummary(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "plain json", content: `{"key_points":["a"],"action_items":[],"decisions":[]}`},
		{name: "fenced", content: "```\n{\"key_points\":[\"a\"]}\n```"},
		{name: "not json", content: "Sorry, I cannot help with that.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := ParseSummary(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, []string{"a"}, summary.KeyPoints)
		})
	}
}
