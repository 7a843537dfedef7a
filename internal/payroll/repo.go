package payroll

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
)

// Repository persists payroll submissions and their entries. The store has no
// multi-table transaction primitive at this seam; the header and its entries
// are written in two steps and reconciled by an explicit compensating delete.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to payroll persistence.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateSubmission inserts the submission header.
func (r *Repository) CreateSubmission(ctx context.Context, submission *models.PayrollSubmission) error {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Omit("Entries").Create(submission).Error
}

// CreateEntries inserts all line entries for a submission.
func (r *Repository) CreateEntries(ctx context.Context, entries []models.PayrollEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		if entries[i].ID == uuid.Nil {
			entries[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

// DeleteSubmission removes a submission header. This is the compensating
// write for a failed entry insertion, not a user-facing operation.
func (r *Repository) DeleteSubmission(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.PayrollSubmission{}).Error
}

// FindSubmission loads one submission with its entries.
func (r *Repository) FindSubmission(ctx context.Context, id uuid.UUID) (*models.PayrollSubmission, error) {
	var submission models.PayrollSubmission
	err := r.db.WithContext(ctx).
		Preload("Entries").
		Where("id = ?", id).
		First(&submission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &submission, nil
}

// ListSubmissions returns a location's submissions using cursor pagination.
func (r *Repository) ListSubmissions(ctx context.Context, opts listQuery) ([]models.PayrollSubmission, error) {
	query := r.db.WithContext(ctx).Model(&models.PayrollSubmission{}).Where("location_id = ?", opts.locationID)

	if opts.status != nil {
		query = query.Where("status = ?", *opts.status)
	}
	if opts.cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", opts.cursor.CreatedAt, opts.cursor.CreatedAt, opts.cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(opts.limit)

	var rows []models.PayrollSubmission
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
