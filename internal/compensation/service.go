package compensation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dcastellanos/shiftpay-backend/internal/payperiod"
	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
	"github.com/dcastellanos/shiftpay-backend/pkg/enums"
	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
)

// submissionStore is the write surface the engine drives. The header and the
// entries are separate writes; DeleteSubmission is the compensating step when
// the second write fails.
type submissionStore interface {
	CreateSubmission(ctx context.Context, submission *models.PayrollSubmission) error
	CreateEntries(ctx context.Context, entries []models.PayrollEntry) error
	DeleteSubmission(ctx context.Context, id uuid.UUID) error
}

// employeeFinder loads the employees named by a submission's lines.
type employeeFinder interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Employee, error)
}

// ServiceParams configure the compensation engine.
type ServiceParams struct {
	Store      submissionStore
	Employees  employeeFinder
	Calculator *payperiod.Calculator
	Logger     *logger.Logger
}

// Service turns raw payroll lines into priced entries and submits them. Each
// line is priced by the employee's compensation type; lines with no positive
// quantity are skipped, and a batch where nothing qualifies is rejected
// before any write happens.
type Service struct {
	store      submissionStore
	employees  employeeFinder
	calculator *payperiod.Calculator
	logg       *logger.Logger
}

// NewService builds the compensation engine.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "submission store required")
	}
	if params.Employees == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "employee finder required")
	}
	if params.Calculator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "period calculator required")
	}
	return &Service{
		store:      params.Store,
		employees:  params.Employees,
		calculator: params.Calculator,
		logg:       params.Logger,
	}, nil
}

// LineInput is one raw payroll line before pricing. Which quantity field is
// read depends on the employee's compensation type; the rest are ignored.
type LineInput struct {
	EmployeeID uuid.UUID        `json:"employee_id" validate:"required"`
	Hours      *decimal.Decimal `json:"hours,omitempty"`
	Units      *decimal.Decimal `json:"units,omitempty"`
	Count      *int             `json:"count,omitempty"`
	Adjustment *decimal.Decimal `json:"adjustment,omitempty"`
	Notes      *string          `json:"notes,omitempty"`
}

// SubmitInput is one payroll batch for a location and pay date.
type SubmitInput struct {
	OrganizationID uuid.UUID   `json:"organization_id" validate:"required"`
	LocationID     uuid.UUID   `json:"location_id" validate:"required"`
	PayDate        time.Time   `json:"pay_date" validate:"required"`
	SubmittedBy    string      `json:"submitted_by" validate:"required"`
	Lines          []LineInput `json:"lines" validate:"required,min=1"`
}

// ComputeAndSubmit prices a batch and persists it. All amounts and the header
// total are computed before the first write, so a rejected batch touches
// nothing. The header is written first, then the entries; if the entry write
// fails the header is deleted so no empty submission survives.
func (s *Service) ComputeAndSubmit(ctx context.Context, input SubmitInput) (*models.PayrollSubmission, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	period := s.calculator.Derive(input.PayDate)

	ids := make([]uuid.UUID, 0, len(input.Lines))
	for _, line := range input.Lines {
		ids = append(ids, line.EmployeeID)
	}
	found, err := s.employees.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load employees")
	}
	byID := make(map[uuid.UUID]models.Employee, len(found))
	for _, employee := range found {
		byID[employee.ID] = employee
	}

	entries := make([]models.PayrollEntry, 0, len(input.Lines))
	total := decimal.Zero
	for _, line := range input.Lines {
		employee, ok := byID[line.EmployeeID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown employee on payroll line").
				WithDetails(map[string]any{"employee_id": line.EmployeeID.String()})
		}
		if employee.PayrollGroup != period.PayrollGroup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee is not in the pay date's payroll group").
				WithDetails(map[string]any{
					"employee_id":   line.EmployeeID.String(),
					"payroll_group": employee.PayrollGroup.String(),
				})
		}
		entry, err := s.priceLine(employee, line)
		if err != nil {
			return nil, err
		}
		if entry == nil {
			continue
		}
		entries = append(entries, *entry)
		total = total.Add(entry.Amount)
	}
	if len(entries) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no payable lines in batch")
	}

	submission := &models.PayrollSubmission{
		ID:             uuid.New(),
		OrganizationID: input.OrganizationID,
		LocationID:     input.LocationID,
		PayDate:        period.PayDate,
		PayrollGroup:   period.PayrollGroup,
		PeriodStart:    period.PeriodStart,
		PeriodEnd:      period.PeriodEnd,
		TotalAmount:    total,
		EmployeeCount:  len(entries),
		SubmittedBy:    input.SubmittedBy,
		Status:         enums.SubmissionStatusPending,
	}

	if err := s.store.CreateSubmission(ctx, submission); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payroll submission")
	}
	for i := range entries {
		entries[i].SubmissionID = submission.ID
	}
	if err := s.store.CreateEntries(ctx, entries); err != nil {
		if deleteErr := s.store.DeleteSubmission(ctx, submission.ID); deleteErr != nil && s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"submission_id": submission.ID.String(),
			})
			s.logg.Error(logCtx, "compensating delete failed, submission header orphaned", deleteErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create payroll entries")
	}

	submission.Entries = entries
	return submission, nil
}

func (s *Service) validateInput(input SubmitInput) error {
	if input.OrganizationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "organization id is required")
	}
	if input.LocationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "location id is required")
	}
	if strings.TrimSpace(input.SubmittedBy) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "submitted by is required")
	}
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one payroll line is required")
	}
	if !s.calculator.IsPayWeekday(input.PayDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "pay date does not fall on the pay weekday")
	}
	return nil
}

// priceLine computes one entry from a raw line. A nil entry with a nil error
// means the line carried no positive quantity and is skipped.
func (s *Service) priceLine(employee models.Employee, line LineInput) (*models.PayrollEntry, error) {
	rate := employee.Rate()
	if rate == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "employee has no rate for its compensation type").
			WithDetails(map[string]any{
				"employee_id":       employee.ID.String(),
				"compensation_type": employee.CompensationType.String(),
			})
	}

	entry := models.PayrollEntry{
		EmployeeID: employee.ID,
		Notes:      line.Notes,
	}

	switch employee.CompensationType {
	case enums.CompensationHourly:
		if line.Hours == nil || !line.Hours.IsPositive() {
			return nil, nil
		}
		entry.Hours = line.Hours
		entry.Amount = line.Hours.Mul(*rate).Round(2)
	case enums.CompensationProduction:
		if line.Units == nil || !line.Units.IsPositive() {
			return nil, nil
		}
		entry.Units = line.Units
		entry.Amount = line.Units.Mul(*rate).Round(2)
	case enums.CompensationFixed:
		if line.Count == nil || *line.Count <= 0 {
			return nil, nil
		}
		entry.FixedCount = line.Count
		amount := rate.Mul(decimal.NewFromInt(int64(*line.Count)))
		if line.Adjustment != nil {
			entry.AdjustmentAmount = line.Adjustment
			amount = amount.Add(*line.Adjustment)
		}
		entry.Amount = amount.Round(2)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown compensation type").
			WithDetails(map[string]any{"employee_id": employee.ID.String()})
	}

	if entry.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line amount is negative").
			WithDetails(map[string]any{"employee_id": employee.ID.String()})
	}
	return &entry, nil
}
