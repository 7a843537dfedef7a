package locations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
)

// Repository reads the location mapping. Locations are configuration owned
// by the organization; this core only consumes them.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to location lookups.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads one location.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&location).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &location, nil
}

// FindByExternalID maps an external form/clock id to its configured
// location. Unmapped ids return nil; no name matching is attempted.
func (r *Repository) FindByExternalID(ctx context.Context, externalID string) (*models.Location, error) {
	if externalID == "" {
		return nil, nil
	}
	var location models.Location
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Where("worksuite_form_id = ? OR worksuite_clock_id = ? OR ? = ANY(form_aliases)",
			externalID, externalID, externalID).
		First(&location).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &location, nil
}

// ListActive returns every active location.
func (r *Repository) ListActive(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("label asc").
		Find(&locations).Error
	if err != nil {
		return nil, err
	}
	return locations, nil
}
