package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Location binds a payroll location to its workforce-platform identifiers.
// The form/clock ids are the explicit mapping that replaces name matching:
// an event only lands on a location when its form or clock id is configured here.
type Location struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID   uuid.UUID      `gorm:"column:organization_id;type:uuid;not null"`
	Name             string         `gorm:"column:name;not null"`
	Label            string         `gorm:"column:label;not null;uniqueIndex"`
	WorkSuiteFormID  string         `gorm:"column:worksuite_form_id;not null"`
	WorkSuiteClockID string         `gorm:"column:worksuite_clock_id;not null"`
	FormAliases      pq.StringArray `gorm:"column:form_aliases;type:text[];default:ARRAY[]::text[]"`
	Active           bool           `gorm:"column:active;not null;default:true"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// MatchesForm reports whether the given external form/clock id belongs to this location.
func (l Location) MatchesForm(externalID string) bool {
	if externalID == "" {
		return false
	}
	if externalID == l.WorkSuiteFormID || externalID == l.WorkSuiteClockID {
		return true
	}
	for _, alias := range l.FormAliases {
		if alias == externalID {
			return true
		}
	}
	return false
}
