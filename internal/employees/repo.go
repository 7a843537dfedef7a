package employees

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
	"github.com/dcastellanos/shiftpay-backend/pkg/enums"
)

// Repository reads employee records. Employees are owned by the
// organization; payroll only consumes them.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to employee lookups.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByIDs loads the employees for the given ids.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Employee, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var employees []models.Employee
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&employees).Error
	if err != nil {
		return nil, err
	}
	return employees, nil
}

// ListActive returns active employees for a location, optionally narrowed to
// one payroll group.
func (r *Repository) ListActive(ctx context.Context, locationID uuid.UUID, group *enums.PayrollGroup) ([]models.Employee, error) {
	query := r.db.WithContext(ctx).
		Where("location_id = ? AND active = ?", locationID, true)
	if group != nil {
		query = query.Where("payroll_group = ?", *group)
	}
	var employees []models.Employee
	if err := query.Order("last_name asc, first_name asc").Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}

// Emails returns the lower-cased emails of the given employees. Aggregation
// keys its totals by lower-cased email, so callers building a candidate set
// go through here.
func Emails(list []models.Employee) []string {
	emails := make([]string, 0, len(list))
	for _, employee := range list {
		email := strings.ToLower(strings.TrimSpace(employee.Email))
		if email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}
