package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-session/internal/domain/entities"
	"github.com/johnquangdev/meeting-session/internal/domain/repositories"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// MeetingRecordRepository stores finalized meeting records in PostgreSQL
type MeetingRecordRepository struct {
	db *gorm.DB
}

var _ repositories.MeetingRecordRepository = (*MeetingRecordRepository)(nil)

// NewMeetingRecordRepository creates a new meeting record repository
func NewMeetingRecordRepository(db *gorm.DB) *MeetingRecordRepository {
	return &MeetingRecordRepository{db: db}
}

// Append inserts record. Re-appending the same id is a no-op so persistence
// retries never duplicate a record.
func (r *MeetingRecordRepository) Append(ctx context.Context, record *entities.MeetingRecord) error {
	if record == nil {
		return errors.New("record cannot be nil")
	}
	return r.appendQuery(r.db.WithContext(ctx), record).Error
}

func (r *MeetingRecordRepository) appendQuery(tx *gorm.DB, record *entities.MeetingRecord) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(record)
}

// FindByID retrieves a record by ID, nil when it does not exist
func (r *MeetingRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.MeetingRecord, error) {
	var record entities.MeetingRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// List returns the most recent records first
func (r *MeetingRecordRepository) List(ctx context.Context, limit int) ([]*entities.MeetingRecord, error) {
	var records []*entities.MeetingRecord
	if err := r.listQuery(r.db.WithContext(ctx), limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *MeetingRecordRepository) listQuery(tx *gorm.DB, limit int) *gorm.DB {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return tx.Model(&entities.MeetingRecord{}).Order("end_time DESC").Limit(limit)
}
