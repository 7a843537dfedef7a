package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dcastellanos/shiftpay-backend/pkg/enums"
)

// ProductionEvent is the local record of one externally reported unit of work
// (a form submission or a clock entry). Rows are keyed by the platform's
// stable event id and soft-deleted only; history is never destroyed. Clock
// entries additionally carry their shift and break intervals in seconds so
// hourly totals can be served without a platform call.
type ProductionEvent struct {
	ID                       uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ExternalEventID          string          `gorm:"column:external_event_id;not null;uniqueIndex"`
	Kind                     enums.EventKind `gorm:"column:kind;not null;default:form"`
	FormOrClockID            string          `gorm:"column:form_or_clock_id;not null;index"`
	SubmittingExternalUserID int64           `gorm:"column:submitting_external_user_id;not null"`
	ResolvedEmail            *string         `gorm:"column:resolved_email;index"`
	LocationLabel            string          `gorm:"column:location_label;not null;index"`
	OccurredAt               time.Time       `gorm:"column:occurred_at;not null;index"`
	ShiftSeconds             *int64          `gorm:"column:shift_seconds"`
	BreakSeconds             *int64          `gorm:"column:break_seconds"`
	DeletedAt                *time.Time      `gorm:"column:deleted_at;index"`
	CreatedAt                time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Live reports whether the event has not been soft-deleted.
func (p ProductionEvent) Live() bool {
	return p.DeletedAt == nil
}

// Resolved reports whether the submitting identity was mapped to a payroll email.
func (p ProductionEvent) Resolved() bool {
	return p.ResolvedEmail != nil && *p.ResolvedEmail != ""
}

// TimeEntry reports whether the row is a clock entry rather than a form
// submission.
func (p ProductionEvent) TimeEntry() bool {
	return p.Kind == enums.EventKindTime
}

// WorkedSeconds returns the clock entry's shift length minus its breaks, in
// seconds. Form submissions and rows without an interval contribute zero.
func (p ProductionEvent) WorkedSeconds() int64 {
	if p.ShiftSeconds == nil {
		return 0
	}
	worked := *p.ShiftSeconds
	if p.BreakSeconds != nil {
		worked -= *p.BreakSeconds
	}
	return worked
}
