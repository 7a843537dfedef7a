package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
)

// Repository persists production events. The uniqueness constraint on
// external_event_id is the only synchronization primitive the pipeline
// relies on: concurrent push and poll writers converge through Upsert.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to production-event persistence.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert creates or refreshes the event row keyed by its external id.
// A conflicting row is overwritten with the incoming values, including
// deleted_at, so a create after a delete revives the row.
func (r *Repository) Upsert(ctx context.Context, event *models.ProductionEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"kind",
				"form_or_clock_id",
				"submitting_external_user_id",
				"resolved_email",
				"location_label",
				"occurred_at",
				"shift_seconds",
				"break_seconds",
				"deleted_at",
				"updated_at",
			}),
		}).
		Create(event).Error
}

// SoftDelete stamps deleted_at on the live row for the external id. The
// returned flag reports whether a row was actually touched; deleting an
// unknown or already-deleted event is a no-op, not an error.
func (r *Repository) SoftDelete(ctx context.Context, externalEventID string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProductionEvent{}).
		Where("external_event_id = ? AND deleted_at IS NULL", externalEventID).
		Update("deleted_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FindByExternalID loads the event row for the external id, deleted or not.
func (r *Repository) FindByExternalID(ctx context.Context, externalEventID string) (*models.ProductionEvent, error) {
	var event models.ProductionEvent
	err := r.db.WithContext(ctx).
		Where("external_event_id = ?", externalEventID).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// ListLive returns non-deleted events for a location label inside the window.
func (r *Repository) ListLive(ctx context.Context, locationLabel string, start, end time.Time) ([]models.ProductionEvent, error) {
	var events []models.ProductionEvent
	err := r.db.WithContext(ctx).
		Where("location_label = ?", locationLabel).
		Where("occurred_at >= ? AND occurred_at <= ?", start, end).
		Where("deleted_at IS NULL").
		Order("occurred_at asc").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
