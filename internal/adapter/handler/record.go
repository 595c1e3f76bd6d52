package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-session/errors"
	recorddto "github.com/johnquangdev/meeting-session/internal/adapter/dto/record"
	"github.com/johnquangdev/meeting-session/internal/adapter/presenter"
	"github.com/johnquangdev/meeting-session/internal/domain/repositories"
)

const archiveURLExpiry = 15 * time.Minute

// ArchiveLinker issues download links for archived records
type ArchiveLinker interface {
	ArchiveURL(ctx context.Context, id uuid.UUID, expiry time.Duration) (string, error)
}

// Record serves stored meeting records
type Record struct {
	records repositories.MeetingRecordRepository
	archive ArchiveLinker
	logger  *zap.Logger
	now     func() time.Time
}

// NewRecordHandler creates a new record handler. archive may be nil when
// object storage is not configured.
func NewRecordHandler(records repositories.MeetingRecordRepository, archive ArchiveLinker, logger *zap.Logger) *Record {
	return &Record{
		records: records,
		archive: archive,
		logger:  logger,
		now:     time.Now,
	}
}

// ListRecords handles GET /records
// @Summary      List meeting records
// @Description  Most recent records first
// @Tags         Records
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of records (1-100)"
// @Success      200    {object}  record.ListRecordsResponse
// @Router       /records [get]
func (h *Record) ListRecords(c echo.Context) error {
	var req recorddto.ListRecordsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return HandleError(h.logger, c, err)
	}

	records, err := h.records.List(c.Request().Context(), req.Limit)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("list records", err))
	}
	return HandleSuccess(h.logger, c, presenter.ToListRecordsResponse(records))
}

// GetRecord handles GET /records/:id
// @Summary      Get a meeting record
// @Tags         Records
// @Produce      json
// @Param        id   path      string  true  "Record ID (UUID)"
// @Success      200  {object}  record.RecordResponse
// @Failure      400  {object}  map[string]interface{}  "Invalid record ID"
// @Failure      404  {object}  map[string]interface{}  "Record not found"
// @Router       /records/{id} [get]
func (h *Record) GetRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("record ID must be a valid UUID"))
	}

	rec, err := h.records.FindByID(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("find record", err))
	}
	if rec == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("meeting record"))
	}
	return HandleSuccess(h.logger, c, presenter.ToRecordResponse(rec))
}

// GetArchiveURL handles GET /records/:id/archive
// @Summary      Get a download link for the archived record
// @Tags         Records
// @Produce      json
// @Param        id   path      string  true  "Record ID (UUID)"
// @Success      200  {object}  record.ArchiveResponse
// @Failure      404  {object}  map[string]interface{}  "Record not found or archiving disabled"
// @Router       /records/{id}/archive [get]
func (h *Record) GetArchiveURL(c echo.Context) error {
	if h.archive == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("record archive"))
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, errors.ErrInvalidArgument("record ID must be a valid UUID"))
	}

	ctx := c.Request().Context()
	rec, err := h.records.FindByID(ctx, id)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrDBQueryFailed("find record", err))
	}
	if rec == nil {
		return HandleError(h.logger, c, errors.ErrNotFound("meeting record"))
	}

	url, err := h.archive.ArchiveURL(ctx, id, archiveURLExpiry)
	if err != nil {
		return HandleError(h.logger, c, errors.ErrStorageFailed("presign archive", err))
	}
	return HandleSuccess(h.logger, c, recorddto.ArchiveResponse{
		URL:       url,
		ExpiresAt: h.now().Add(archiveURLExpiry),
	})
}
