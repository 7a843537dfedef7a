package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
	"github.com/dcastellanos/shiftpay-backend/pkg/enums"
	pkgpagination "github.com/dcastellanos/shiftpay-backend/pkg/pagination"
)

type ListParams struct {
	LocationID uuid.UUID
	Status     string
	pkgpagination.Params
}

type ListResult struct {
	Items  []ListItem `json:"items"`
	Cursor string     `json:"cursor"`
}

type ListItem struct {
	ID            uuid.UUID              `json:"id"`
	LocationID    uuid.UUID              `json:"locationId"`
	PayDate       time.Time              `json:"payDate"`
	PayrollGroup  enums.PayrollGroup     `json:"payrollGroup"`
	PeriodStart   time.Time              `json:"periodStart"`
	PeriodEnd     time.Time              `json:"periodEnd"`
	TotalAmount   decimal.Decimal        `json:"totalAmount"`
	EmployeeCount int                    `json:"employeeCount"`
	SubmittedBy   string                 `json:"submittedBy"`
	Status        enums.SubmissionStatus `json:"status"`
	CreatedAt     time.Time              `json:"createdAt"`
}

type listQuery struct {
	locationID uuid.UUID
	status     *enums.SubmissionStatus
	limit      int
	cursor     *pkgpagination.Cursor
}

func toListItem(m models.PayrollSubmission) ListItem {
	return ListItem{
		ID:            m.ID,
		LocationID:    m.LocationID,
		PayDate:       m.PayDate,
		PayrollGroup:  m.PayrollGroup,
		PeriodStart:   m.PeriodStart,
		PeriodEnd:     m.PeriodEnd,
		TotalAmount:   m.TotalAmount,
		EmployeeCount: m.EmployeeCount,
		SubmittedBy:   m.SubmittedBy,
		Status:        m.Status,
		CreatedAt:     m.CreatedAt,
	}
}
