package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dcastellanos/shiftpay-backend/api/responses"
	"github.com/dcastellanos/shiftpay-backend/api/validators"
	"github.com/dcastellanos/shiftpay-backend/internal/compensation"
	"github.com/dcastellanos/shiftpay-backend/internal/payperiod"
	"github.com/dcastellanos/shiftpay-backend/internal/payroll"
	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
	"github.com/dcastellanos/shiftpay-backend/pkg/enums"
	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
	"github.com/dcastellanos/shiftpay-backend/pkg/pagination"
)

const (
	dateLayout    = "2006-01-02"
	maxNoteLength = 500
)

type submissionEngine interface {
	ComputeAndSubmit(ctx context.Context, input compensation.SubmitInput) (*models.PayrollSubmission, error)
}

type submissionReader interface {
	GetSubmission(ctx context.Context, id uuid.UUID) (*models.PayrollSubmission, error)
	ListSubmissions(ctx context.Context, params payroll.ListParams) (*payroll.ListResult, error)
}

type payrollLineRequest struct {
	EmployeeID string           `json:"employeeId" validate:"required"`
	Hours      *decimal.Decimal `json:"hours"`
	Units      *decimal.Decimal `json:"units"`
	Count      *int             `json:"count"`
	Adjustment *decimal.Decimal `json:"adjustment"`
	Notes      *string          `json:"notes"`
}

type payrollSubmitRequest struct {
	OrganizationID string               `json:"organizationId" validate:"required"`
	LocationID     string               `json:"locationId" validate:"required"`
	PayDate        string               `json:"payDate" validate:"required"`
	PayrollGroup   string               `json:"payrollGroup"`
	SubmittedBy    string               `json:"submittedBy" validate:"required,email"`
	Employees      []payrollLineRequest `json:"employees" validate:"required,min=1,dive"`
}

func (r payrollSubmitRequest) toInput() (compensation.SubmitInput, error) {
	orgID, err := uuid.Parse(strings.TrimSpace(r.OrganizationID))
	if err != nil {
		return compensation.SubmitInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid organizationId")
	}
	locationID, err := uuid.Parse(strings.TrimSpace(r.LocationID))
	if err != nil {
		return compensation.SubmitInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid locationId")
	}
	payDate, err := time.Parse(dateLayout, r.PayDate)
	if err != nil {
		return compensation.SubmitInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payDate must be YYYY-MM-DD")
	}

	lines := make([]compensation.LineInput, 0, len(r.Employees))
	for _, line := range r.Employees {
		employeeID, err := uuid.Parse(strings.TrimSpace(line.EmployeeID))
		if err != nil {
			return compensation.SubmitInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid employeeId")
		}
		notes := line.Notes
		if notes != nil {
			cleaned := validators.SanitizeString(*notes, maxNoteLength)
			notes = &cleaned
		}
		lines = append(lines, compensation.LineInput{
			EmployeeID: employeeID,
			Hours:      line.Hours,
			Units:      line.Units,
			Count:      line.Count,
			Adjustment: line.Adjustment,
			Notes:      notes,
		})
	}

	return compensation.SubmitInput{
		OrganizationID: orgID,
		LocationID:     locationID,
		PayDate:        payDate,
		SubmittedBy:    strings.TrimSpace(r.SubmittedBy),
		Lines:          lines,
	}, nil
}

// PayrollSubmit prices and persists one payroll batch. The response follows
// the submission API contract: a bare `{success, submissionId}` object.
// The payroll group is derived from the pay date; a group named in the body
// is only cross-checked, never trusted.
func PayrollSubmit(engine submissionEngine, calculator *payperiod.Calculator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "compensation engine unavailable"))
			return
		}

		var payload payrollSubmitRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if raw := strings.TrimSpace(payload.PayrollGroup); raw != "" && calculator != nil {
			claimed, err := enums.ParsePayrollGroup(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid payrollGroup"))
				return
			}
			if derived := calculator.Derive(input.PayDate).PayrollGroup; claimed != derived {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payrollGroup does not match the pay date").
					WithDetails(map[string]any{"derived": derived.String()}))
				return
			}
		}

		submission, err := engine.ComputeAndSubmit(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteRaw(w, http.StatusOK, map[string]any{
			"success":      true,
			"submissionId": submission.ID.String(),
		})
	}
}

// PayrollSubmissionList returns a location's submission history, optionally
// narrowed to one status.
func PayrollSubmissionList(svc submissionReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payroll service unavailable"))
			return
		}

		locationID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("location")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid location"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := payroll.ListParams{
			LocationID: locationID,
			Status:     strings.TrimSpace(r.URL.Query().Get("status")),
		}
		params.Limit = limit
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		result, err := svc.ListSubmissions(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PayrollSubmissionDetail returns one submission with its entries.
func PayrollSubmissionDetail(svc submissionReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payroll service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid submission id"))
			return
		}

		submission, err := svc.GetSubmission(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, submission)
	}
}

type periodPreviewResponse struct {
	payperiod.Period
	Upcoming []string `json:"upcomingPayDates,omitempty"`
}

// PayrollPeriod previews the pay period a pay date compensates. An optional
// `upcoming` count also lists the next pay dates after it.
func PayrollPeriod(calculator *payperiod.Calculator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.URL.Query().Get("payDate"))
		payDate, err := time.Parse(dateLayout, raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "payDate must be YYYY-MM-DD"))
			return
		}
		if !calculator.IsPayWeekday(payDate) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payDate does not fall on the pay weekday"))
			return
		}

		upcoming, err := validators.ParseQueryInt(r, "upcoming", 0, 0, 26)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := periodPreviewResponse{Period: calculator.Derive(payDate)}
		for _, next := range calculator.NextPayDates(payDate.AddDate(0, 0, 1), upcoming) {
			resp.Upcoming = append(resp.Upcoming, next.Format(dateLayout))
		}
		responses.WriteSuccess(w, resp)
	}
}
