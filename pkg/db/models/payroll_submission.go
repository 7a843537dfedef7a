package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dcastellanos/shiftpay-backend/pkg/enums"
)

// PayrollSubmission is the header of one biweekly payroll run for a location.
// It is written before its entries; the two-step write is reconciled by a
// compensating delete when entry insertion fails.
type PayrollSubmission struct {
	ID             uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizationID uuid.UUID              `gorm:"column:organization_id;type:uuid;not null;index"`
	LocationID     uuid.UUID              `gorm:"column:location_id;type:uuid;not null;index"`
	PayDate        time.Time              `gorm:"column:pay_date;type:date;not null"`
	PayrollGroup   enums.PayrollGroup     `gorm:"column:payroll_group;type:varchar(2);not null"`
	PeriodStart    time.Time              `gorm:"column:period_start;type:date;not null"`
	PeriodEnd      time.Time              `gorm:"column:period_end;type:date;not null"`
	TotalAmount    decimal.Decimal        `gorm:"column:total_amount;type:numeric(14,2);not null"`
	EmployeeCount  int                    `gorm:"column:employee_count;not null"`
	SubmittedBy    string                 `gorm:"column:submitted_by;not null"`
	Status         enums.SubmissionStatus `gorm:"column:status;type:varchar(16);not null;default:'pending'"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`

	Entries []PayrollEntry `gorm:"foreignKey:SubmissionID"`
}
