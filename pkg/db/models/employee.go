package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dcastellanos/shiftpay-backend/pkg/enums"
)

// Employee is the payroll-side view of a worker. Pay is keyed by email;
// the workforce platform only knows the worker by a numeric user id.
type Employee struct {
	ID               uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email            string                 `gorm:"column:email;not null;uniqueIndex"`
	FirstName        string                 `gorm:"column:first_name;not null"`
	LastName         string                 `gorm:"column:last_name;not null"`
	OrganizationID   uuid.UUID              `gorm:"column:organization_id;type:uuid;not null"`
	LocationID       uuid.UUID              `gorm:"column:location_id;type:uuid;not null;index"`
	PayrollGroup     enums.PayrollGroup     `gorm:"column:payroll_group;type:varchar(2);not null"`
	CompensationType enums.CompensationType `gorm:"column:compensation_type;type:varchar(16);not null"`
	HourlyRate       *decimal.Decimal       `gorm:"column:hourly_rate;type:numeric(12,2)"`
	PieceRate        *decimal.Decimal       `gorm:"column:piece_rate;type:numeric(12,4)"`
	FixedPay         *decimal.Decimal       `gorm:"column:fixed_pay;type:numeric(12,2)"`
	Active           bool                   `gorm:"column:active;not null;default:true"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// Rate returns the rate column matching the employee's compensation type.
func (e Employee) Rate() *decimal.Decimal {
	switch e.CompensationType {
	case enums.CompensationHourly:
		return e.HourlyRate
	case enums.CompensationProduction:
		return e.PieceRate
	case enums.CompensationFixed:
		return e.FixedPay
	}
	return nil
}
