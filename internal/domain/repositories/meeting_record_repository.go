package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-session/internal/domain/entities"
)

// MeetingRecordRepository defines the interface for meeting record data access
type MeetingRecordRepository interface {
	// Append stores a finalized record. Records are never updated afterwards.
	Append(ctx context.Context, record *entities.MeetingRecord) error

	// FindByID finds a record by ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.MeetingRecord, error)

	// List returns the most recent records first
	List(ctx context.Context, limit int) ([]*entities.MeetingRecord, error)
}
