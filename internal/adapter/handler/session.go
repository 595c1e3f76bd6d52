package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	sessiondto "github.com/johnquangdev/meeting-session/internal/adapter/dto/session"
	"github.com/johnquangdev/meeting-session/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	sessionUsecase "github.com/johnquangdev/meeting-session/internal/usecase/session"
)

// Session handles the control API of the running session
type Session struct {
	service sessionUsecase.Service
	logger  *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service sessionUsecase.Service, logger *zap.Logger) *Session {
	return &Session{
		service: service,
		logger:  logger,
	}
}

// GetState handles GET /session
// @Summary      Get session state
// @Description  Returns devices, tracks, share state, roster, logs and recent notices
// @Tags         Session
// @Produce      json
// @Success      200  {object}  session.View
// @Failure      503  {object}  map[string]interface{}  "Session is still starting"
// @Router       /session [get]
func (h *Session) GetState(c echo.Context) error {
	view, err := h.service.State(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, view)
}

// RefreshDevices handles POST /session/devices/refresh
// @Summary      Re-enumerate devices
// @Description  Probes label permission, enumerates devices and reconciles the selection
// @Tags         Devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /session/devices/refresh [post]
func (h *Session) RefreshDevices(c echo.Context) error {
	if err := h.service.RefreshDevices(c.Request().Context()); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, nil)
}

// SelectDevice handles PUT /session/devices
// @Summary      Switch device
// @Description  Switches the active device of one class; the selection changes once the transport confirms
// @Tags         Devices
// @Accept       json
// @Produce      json
// @Param        request  body      session.SelectDeviceRequest  true  "Device selection"
// @Success      200      {object}  map[string]interface{}
// @Failure      400      {object}  map[string]interface{}  "Unknown device or kind"
// @Router       /session/devices [put]
func (h *Session) SelectDevice(c echo.Context) error {
	var req sessiondto.SelectDeviceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	err := h.service.SelectDevice(c.Request().Context(), entities.DeviceKind(req.Kind), req.DeviceID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, nil)
}

// SetMicrophone handles POST /session/microphone
// @Summary      Enable or disable the microphone
// @Tags         Media
// @Accept       json
// @Produce      json
// @Param        request  body      session.ToggleRequest  true  "Microphone state"
// @Success      200      {object}  map[string]interface{}
// @Router       /session/microphone [post]
func (h *Session) SetMicrophone(c echo.Context) error {
	var req sessiondto.ToggleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.service.SetMicrophoneEnabled(c.Request().Context(), *req.Enabled); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, nil)
}

// SetCamera handles POST /session/camera
// @Summary      Enable or disable the camera
// @Tags         Media
// @Accept       json
// @Produce      json
// @Param        request  body      session.ToggleRequest  true  "Camera state"
// @Success      200      {object}  map[string]interface{}
// @Router       /session/camera [post]
func (h *Session) SetCamera(c echo.Context) error {
	var req sessiondto.ToggleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	if err := h.service.SetCameraEnabled(c.Request().Context(), *req.Enabled); err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, nil)
}

// ToggleShare handles POST /session/share/toggle
// @Summary      Toggle screen share
// @Description  Starts the share negotiation when idle, stops an active share
// @Tags         Screen share
// @Produce      json
// @Success      200  {object}  session.ShareView
// @Failure      409  {object}  map[string]interface{}  "Share is being negotiated"
// @Router       /session/share/toggle [post]
func (h *Session) ToggleShare(c echo.Context) error {
	view, err := h.service.ToggleShare(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, view)
}

// SelectShareSource handles POST /session/share/select
// @Summary      Select a picker source
// @Tags         Screen share
// @Accept       json
// @Produce      json
// @Param        request  body      session.SelectSourceRequest  true  "Source offered by the host picker"
// @Success      200      {object}  session.ShareView
// @Failure      409      {object}  map[string]interface{}  "Picker is not open"
// @Router       /session/share/select [post]
func (h *Session) SelectShareSource(c echo.Context) error {
	var req sessiondto.SelectSourceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	view, err := h.service.SelectShareSource(c.Request().Context(), req.SourceID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, view)
}

// CancelSharePicker handles POST /session/share/cancel
// @Summary      Cancel the picker
// @Tags         Screen share
// @Produce      json
// @Success      200  {object}  session.ShareView
// @Router       /session/share/cancel [post]
func (h *Session) CancelSharePicker(c echo.Context) error {
	view, err := h.service.CancelSharePicker(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, view)
}

// SendChat handles POST /session/chat
// @Summary      Send a chat message
// @Tags         Timeline
// @Accept       json
// @Produce      json
// @Param        request  body      session.SendChatRequest  true  "Chat message"
// @Success      200      {object}  entities.ChatMessage
// @Failure      400      {object}  map[string]interface{}  "Empty message"
// @Failure      409      {object}  map[string]interface{}  "Session has ended"
// @Router       /session/chat [post]
func (h *Session) SendChat(c echo.Context) error {
	var req sessiondto.SendChatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	var attachment *entities.Attachment
	if req.Attachment != nil {
		attachment = &entities.Attachment{
			Name:        req.Attachment.Name,
			URL:         req.Attachment.URL,
			ContentType: req.Attachment.ContentType,
		}
	}

	msg, err := h.service.SendChat(c.Request().Context(), req.Body, attachment)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, msg)
}

// AddTranslation handles POST /session/translations
// @Summary      Append a translation
// @Description  Used by translation producers that post over HTTP instead of the room data channel
// @Tags         Timeline
// @Accept       json
// @Produce      json
// @Param        request  body      session.AddTranslationRequest  true  "Translated utterance"
// @Success      200      {object}  entities.TranslationEntry
// @Router       /session/translations [post]
func (h *Session) AddTranslation(c echo.Context) error {
	var req sessiondto.AddTranslationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	entry := entities.NewTranslationEntry(req.Speaker, req.SourceText, entities.Language(req.SourceLanguage), req.TargetText)
	entry, err := h.service.AddTranslation(c.Request().Context(), entry)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, entry)
}

// AddTerm handles POST /session/terms
// @Summary      Append a term explanation
// @Tags         Timeline
// @Accept       json
// @Produce      json
// @Param        request  body      session.AddTermRequest  true  "Term explanation"
// @Success      200      {object}  entities.TermExplanation
// @Router       /session/terms [post]
func (h *Session) AddTerm(c echo.Context) error {
	var req sessiondto.AddTermRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	term := entities.NewTermExplanation(req.Term, req.Explanation, req.OriginReference)
	term, err := h.service.AddTerm(c.Request().Context(), term)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, term)
}

// End handles POST /session/end
// @Summary      End the session
// @Description  Leaves the room and writes the meeting record. Calling it again returns the same record.
// @Tags         Session
// @Produce      json
// @Success      200  {object}  record.RecordResponse
// @Failure      503  {object}  map[string]interface{}  "Record kept pending, retry later"
// @Router       /session/end [post]
func (h *Session) End(c echo.Context) error {
	rec, err := h.service.End(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToRecordResponse(rec))
}

// RetryRecord handles POST /session/record/retry
// @Summary      Retry the pending record
// @Tags         Session
// @Produce      json
// @Success      200  {object}  record.RecordResponse
// @Failure      404  {object}  map[string]interface{}  "No pending record"
// @Router       /session/record/retry [post]
func (h *Session) RetryRecord(c echo.Context) error {
	rec, err := h.service.RetryRecord(c.Request().Context())
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, presenter.ToRecordResponse(rec))
}
