package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayrollEntry is one employee's line on a payroll submission. Exactly one of
// Hours, Units or FixedCount is populated, matching the employee's
// compensation type; AdjustmentAmount applies to fixed-pay lines only.
type PayrollEntry struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SubmissionID     uuid.UUID        `gorm:"column:submission_id;type:uuid;not null;index"`
	EmployeeID       uuid.UUID        `gorm:"column:employee_id;type:uuid;not null;index"`
	Hours            *decimal.Decimal `gorm:"column:hours;type:numeric(8,2)"`
	Units            *decimal.Decimal `gorm:"column:units;type:numeric(10,2)"`
	FixedCount       *int             `gorm:"column:fixed_count"`
	AdjustmentAmount *decimal.Decimal `gorm:"column:adjustment_amount;type:numeric(12,2)"`
	Amount           decimal.Decimal  `gorm:"column:amount;type:numeric(12,2);not null"`
	Notes            *string          `gorm:"column:notes"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
