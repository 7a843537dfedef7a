package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dcastellanos/shiftpay-backend/api/responses"
	internalemployees "github.com/dcastellanos/shiftpay-backend/internal/employees"
	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
	"github.com/dcastellanos/shiftpay-backend/pkg/enums"
	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
)

type aggregator interface {
	CountsFromStore(ctx context.Context, locationLabel string, start, end time.Time, employeeEmails []string) (map[string]decimal.Decimal, error)
	HoursFromStore(ctx context.Context, locationLabel string, start, end time.Time, employeeEmails []string) (map[string]decimal.Decimal, error)
}

// storeReduction is one cache-backed aggregation over the local event store.
type storeReduction func(ctx context.Context, locationLabel string, start, end time.Time, employeeEmails []string) (map[string]decimal.Decimal, error)

type locationFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
}

type employeeLister interface {
	ListActive(ctx context.Context, locationID uuid.UUID, group *enums.PayrollGroup) ([]models.Employee, error)
}

// AggregateCounts serves per-employee production totals for a location and
// window out of the local event store.
func AggregateCounts(svc aggregator, locations locationFinder, employees employeeLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "aggregation service unavailable"))
			return
		}
		aggregateFromStore(w, r, "counts", svc.CountsFromStore, locations, employees, logg)
	}
}

// AggregateHours serves per-employee worked-hour totals for a location and
// window out of the locally synced clock entries.
func AggregateHours(svc aggregator, locations locationFinder, employees employeeLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "aggregation service unavailable"))
			return
		}
		aggregateFromStore(w, r, "hours", svc.HoursFromStore, locations, employees, logg)
	}
}

func aggregateFromStore(w http.ResponseWriter, r *http.Request, field string, reduce storeReduction, locations locationFinder, employees employeeLister, logg *logger.Logger) {
	locationID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("location")))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid location"))
		return
	}
	start, end, err := parseWindow(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}

	location, err := locations.FindByID(r.Context(), locationID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	if location == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "location not found"))
		return
	}

	active, err := employees.ListActive(r.Context(), locationID, nil)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list employees"))
		return
	}

	totals, err := reduce(r.Context(), location.Label, start, end, internalemployees.Emails(active))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, map[string]any{
		"location": location.Label,
		"start":    start.Format(dateLayout),
		"end":      end.Format(dateLayout),
		field:      totals,
	})
}

// parseWindow reads the start/end query parameters as an inclusive date
// window. The end date runs to the final instant of its day.
func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, strings.TrimSpace(r.URL.Query().Get("start")))
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "start must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, strings.TrimSpace(r.URL.Query().Get("end")))
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "end must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "end must not precede start")
	}
	end = end.Add(24*time.Hour - time.Nanosecond)
	return start, end, nil
}
