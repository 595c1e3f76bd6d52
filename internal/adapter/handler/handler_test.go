package handler

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-session/errors"
	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/meeting-session/internal/usecase/errors"
	sessionUsecase "github.com/johnquangdev/meeting-session/internal/usecase/session"
	"github.com/johnquangdev/meeting-session/pkg/config"
	pkgvalidator "github.com/johnquangdev/meeting-session/pkg/validator"
)

type fakeSession struct {
	view       sessionUsecase.View
	stateErr   error
	kind       entities.DeviceKind
	deviceID   string
	selectErr  error
	micEnabled *bool
	shareErr   error
	chat       []entities.ChatMessage
	chatErr    error
	record     *entities.MeetingRecord
	endErr     error
	retryErr   error
}

func (f *fakeSession) Run(context.Context) error { return nil }

func (f *fakeSession) State(context.Context) (sessionUsecase.View, error) {
	return f.view, f.stateErr
}

func (f *fakeSession) RefreshDevices(context.Context) error { return nil }

func (f *fakeSession) SelectDevice(_ context.Context, kind entities.DeviceKind, id string) error {
	if f.selectErr != nil {
		return f.selectErr
	}
	f.kind, f.deviceID = kind, id
	return nil
}

func (f *fakeSession) SetMicrophoneEnabled(_ context.Context, enabled bool) error {
	f.micEnabled = &enabled
	return nil
}

func (f *fakeSession) SetCameraEnabled(context.Context, bool) error { return nil }

func (f *fakeSession) ToggleShare(context.Context) (sessionUsecase.ShareView, error) {
	if f.shareErr != nil {
		return sessionUsecase.ShareView{}, f.shareErr
	}
	return sessionUsecase.ShareView{State: "awaiting_host_selection"}, nil
}

func (f *fakeSession) SelectShareSource(_ context.Context, id string) (sessionUsecase.ShareView, error) {
	if f.shareErr != nil {
		return sessionUsecase.ShareView{}, f.shareErr
	}
	return sessionUsecase.ShareView{State: "active", Sharing: true, SourceID: id}, nil
}

func (f *fakeSession) CancelSharePicker(context.Context) (sessionUsecase.ShareView, error) {
	return sessionUsecase.ShareView{State: "idle"}, nil
}

func (f *fakeSession) SendChat(_ context.Context, body string, attachment *entities.Attachment) (entities.ChatMessage, error) {
	if f.chatErr != nil {
		return entities.ChatMessage{}, f.chatErr
	}
	msg := entities.NewChatMessage("alice", body, attachment)
	f.chat = append(f.chat, msg)
	return msg, nil
}

func (f *fakeSession) AddTranslation(_ context.Context, entry entities.TranslationEntry) (entities.TranslationEntry, error) {
	return entry, nil
}

func (f *fakeSession) AddTerm(_ context.Context, term entities.TermExplanation) (entities.TermExplanation, error) {
	return term, nil
}

func (f *fakeSession) End(context.Context) (*entities.MeetingRecord, error) {
	return f.record, f.endErr
}

func (f *fakeSession) RetryRecord(context.Context) (*entities.MeetingRecord, error) {
	return f.record, f.retryErr
}

func (f *fakeSession) Notices() <-chan sessionUsecase.Notice { return nil }

func (f *fakeSession) Done() <-chan struct{} { return nil }

type fakeRecords struct {
	records map[uuid.UUID]*entities.MeetingRecord
	limit   int
}

func (f *fakeRecords) Append(_ context.Context, r *entities.MeetingRecord) error {
	f.records[r.ID] = r
	return nil
}

func (f *fakeRecords) FindByID(_ context.Context, id uuid.UUID) (*entities.MeetingRecord, error) {
	return f.records[id], nil
}

func (f *fakeRecords) List(_ context.Context, limit int) ([]*entities.MeetingRecord, error) {
	f.limit = limit
	out := make([]*entities.MeetingRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

type fakeArchive struct{}

func (fakeArchive) ArchiveURL(_ context.Context, id uuid.UUID, _ time.Duration) (string, error) {
	return "https://files.example.com/records/" + id.String() + ".json", nil
}

type response struct {
	Code    interface{}       `json:"code"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Details map[string]string `json:"details"`
}

func newServer(svc *fakeSession, records *fakeRecords) *echo.Echo {
	e := echo.New()
	e.Validator = pkgvalidator.New()
	cfg := &config.Config{Server: config.ServerConfig{Environment: "test"}}
	NewRouter(cfg, NewSessionHandler(svc, nil), NewRecordHandler(records, fakeArchive{}, nil)).Setup(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, body string) (int, response) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func TestGetState(t *testing.T) {
	svc := &fakeSession{view: sessionUsecase.View{RoomName: "standup", Duration: "02:05"}}
	e := newServer(svc, &fakeRecords{})

	code, resp := do(t, e, http.MethodGet, "/v1/session", "")
	require.Equal(t, http.StatusOK, code)

	var view sessionUsecase.View
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.Equal(t, "standup", view.RoomName)
	require.Equal(t, "02:05", view.Duration)
}

func TestSelectDevice(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantApp  string
	}{
		{
			name:     "switches device",
			body:     `{"kind":"audioinput","device_id":"hw:1,0"}`,
			wantCode: http.StatusOK,
		},
		{
			name:     "rejects unknown kind",
			body:     `{"kind":"printer","device_id":"lp0"}`,
			wantCode: http.StatusBadRequest,
			wantApp:  "INVALID_ARGUMENT",
		},
		{
			name:     "rejects device missing from the list",
			body:     `{"kind":"videoinput","device_id":"/dev/video9"}`,
			err:      usecaseErrors.ErrUnknownDevice,
			wantCode: http.StatusBadRequest,
			wantApp:  "INVALID_ARGUMENT",
		},
		{
			name:     "session already ended",
			body:     `{"kind":"videoinput","device_id":"/dev/video0"}`,
			err:      usecaseErrors.ErrSessionEnded,
			wantCode: http.StatusConflict,
			wantApp:  "SESSION_ENDED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSession{selectErr: tt.err}
			e := newServer(svc, &fakeRecords{})

			code, resp := do(t, e, http.MethodPut, "/v1/session/devices", tt.body)
			require.Equal(t, tt.wantCode, code)
			if tt.wantApp != "" {
				require.Equal(t, tt.wantApp, resp.Code)
				return
			}
			require.Equal(t, entities.DeviceKindAudioInput, svc.kind)
			require.Equal(t, "hw:1,0", svc.deviceID)
		})
	}
}

func TestSetMicrophoneRequiresEnabled(t *testing.T) {
	svc := &fakeSession{}
	e := newServer(svc, &fakeRecords{})

	code, _ := do(t, e, http.MethodPost, "/v1/session/microphone", `{}`)
	require.Equal(t, http.StatusBadRequest, code)
	require.Nil(t, svc.micEnabled)

	code, _ = do(t, e, http.MethodPost, "/v1/session/microphone", `{"enabled":false}`)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, svc.micEnabled)
	require.False(t, *svc.micEnabled)
}

func TestShareConflict(t *testing.T) {
	svc := &fakeSession{shareErr: usecaseErrors.ErrPickerNotOpen}
	e := newServer(svc, &fakeRecords{})

	code, resp := do(t, e, http.MethodPost, "/v1/session/share/select", `{"source_id":"window:42"}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "CONFLICT", resp.Code)
}

func TestSelectShareSource(t *testing.T) {
	e := newServer(&fakeSession{}, &fakeRecords{})

	code, resp := do(t, e, http.MethodPost, "/v1/session/share/select", `{"source_id":"window:42"}`)
	require.Equal(t, http.StatusOK, code)

	var view sessionUsecase.ShareView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.True(t, view.Sharing)
	require.Equal(t, "window:42", view.SourceID)
}

func TestSendChat(t *testing.T) {
	svc := &fakeSession{}
	e := newServer(svc, &fakeRecords{})

	code, resp := do(t, e, http.MethodPost, "/v1/session/chat",
		`{"body":"hello","attachment":{"name":"agenda.pdf","url":"https://files.example.com/agenda.pdf"}}`)
	require.Equal(t, http.StatusOK, code)

	var msg entities.ChatMessage
	require.NoError(t, json.Unmarshal(resp.Data, &msg))
	require.Equal(t, "hello", msg.Body)
	require.NotNil(t, msg.Attachment)
	require.Equal(t, "agenda.pdf", msg.Attachment.Name)
	require.Len(t, svc.chat, 1)

	code, _ = do(t, e, http.MethodPost, "/v1/session/chat", `{"body":"x","attachment":{"name":"a","url":"not a url"}}`)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestSendChatAfterEnd(t *testing.T) {
	e := newServer(&fakeSession{chatErr: entities.ErrTimelineClosed}, &fakeRecords{})

	code, resp := do(t, e, http.MethodPost, "/v1/session/chat", `{"body":"late"}`)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "SESSION_ENDED", resp.Code)
}

func TestAddTranslationValidatesLanguage(t *testing.T) {
	e := newServer(&fakeSession{}, &fakeRecords{})

	code, _ := do(t, e, http.MethodPost, "/v1/session/translations",
		`{"speaker":"bob","source_text":"안녕하세요","source_language":"fr","target_text":"こんにちは"}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, resp := do(t, e, http.MethodPost, "/v1/session/translations",
		`{"speaker":"bob","source_text":"안녕하세요","source_language":"ko","target_text":"こんにちは"}`)
	require.Equal(t, http.StatusOK, code)

	var entry entities.TranslationEntry
	require.NoError(t, json.Unmarshal(resp.Data, &entry))
	require.NotEmpty(t, entry.ID)
	require.Equal(t, entities.Language("ko"), entry.SourceLanguage)
}

func TestEndReportsPersistFailure(t *testing.T) {
	svc := &fakeSession{
		record: &entities.MeetingRecord{ID: uuid.New()},
		endErr: errors.ErrRecordPersistFailed("r1", stdErrors.New("db down")),
	}
	e := newServer(svc, &fakeRecords{})

	code, resp := do(t, e, http.MethodPost, "/v1/session/end", "")
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "RECORD_PERSIST_FAILED", resp.Code)
	require.Equal(t, "r1", resp.Details["record_id"])
}

func TestRetryWithoutPendingRecord(t *testing.T) {
	e := newServer(&fakeSession{retryErr: usecaseErrors.ErrNoPendingRecord}, &fakeRecords{})

	code, resp := do(t, e, http.MethodPost, "/v1/session/record/retry", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "NOT_FOUND", resp.Code)
}

func TestRecords(t *testing.T) {
	rec := &entities.MeetingRecord{ID: uuid.New(), Title: "Standup", DurationSeconds: 125}
	records := &fakeRecords{records: map[uuid.UUID]*entities.MeetingRecord{rec.ID: rec}}
	e := newServer(&fakeSession{}, records)

	code, resp := do(t, e, http.MethodGet, "/v1/records?limit=5", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 5, records.limit)
	require.Contains(t, string(resp.Data), rec.ID.String())

	code, _ = do(t, e, http.MethodGet, "/v1/records?limit=500", "")
	require.Equal(t, http.StatusBadRequest, code)

	code, resp = do(t, e, http.MethodGet, "/v1/records/"+rec.ID.String(), "")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(resp.Data), `"duration":"02:05"`)

	code, _ = do(t, e, http.MethodGet, "/v1/records/"+uuid.NewString(), "")
	require.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, e, http.MethodGet, "/v1/records/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, code)

	code, resp = do(t, e, http.MethodGet, "/v1/records/"+rec.ID.String()+"/archive", "")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(resp.Data), "records/"+rec.ID.String()+".json")
}

func TestHealth(t *testing.T) {
	e := newServer(&fakeSession{}, &fakeRecords{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"environment":"test"`)
}
