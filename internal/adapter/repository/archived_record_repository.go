package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/domain/repositories"
)

// ObjectStore is the object storage used to archive records
type ObjectStore interface {
	UploadJSON(ctx context.Context, objectName string, v interface{}) error
	GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// ArchivingRecordRepository stores records through next and keeps a JSON copy
// of each one in object storage. The database stays the source of truth: a
// failed upload is logged and the append still succeeds.
type ArchivingRecordRepository struct {
	repositories.MeetingRecordRepository
	store  ObjectStore
	logger *zap.Logger
}

// NewArchivingRecordRepository wraps next with object storage archiving
func NewArchivingRecordRepository(next repositories.MeetingRecordRepository, store ObjectStore, logger *zap.Logger) *ArchivingRecordRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchivingRecordRepository{
		MeetingRecordRepository: next,
		store:                   store,
		logger:                  logger,
	}
}

// RecordObjectName is the object key of an archived record
func RecordObjectName(id uuid.UUID) string {
	return fmt.Sprintf("records/%s.json", id)
}

// Append stores record and uploads its archive copy
func (r *ArchivingRecordRepository) Append(ctx context.Context, record *entities.MeetingRecord) error {
	if err := r.MeetingRecordRepository.Append(ctx, record); err != nil {
		return err
	}

	name := RecordObjectName(record.ID)
	if err := r.store.UploadJSON(ctx, name, record); err != nil {
		r.logger.Warn("⚠️ failed to archive meeting record",
			zap.String("record_id", record.ID.String()),
			zap.String("object", name),
			zap.Error(err),
		)
		return nil
	}

	r.logger.Info("📦 meeting record archived", zap.String("object", name))
	return nil
}

// ArchiveURL returns a presigned download URL of the archived copy of id
func (r *ArchivingRecordRepository) ArchiveURL(ctx context.Context, id uuid.UUID, expiry time.Duration) (string, error) {
	return r.store.GetFileURL(ctx, RecordObjectName(id), expiry)
}
