package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dcastellanos/shiftpay-backend/api/responses"
	"github.com/dcastellanos/shiftpay-backend/api/validators"
	"github.com/dcastellanos/shiftpay-backend/internal/ingest"
	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
)

type reconcileRunner interface {
	Reconcile(ctx context.Context, location models.Location, start, end time.Time) (*ingest.ReconcileReport, error)
}

type syncReconcileRequest struct {
	LocationID string `json:"locationId" validate:"required"`
	Start      string `json:"start" validate:"required"`
	End        string `json:"end" validate:"required"`
}

// SyncReconcile triggers one poll cycle for a location and window, for
// operators closing a known gap without waiting on the scheduled sweep.
func SyncReconcile(svc reconcileRunner, locations locationFinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ingest service unavailable"))
			return
		}

		var payload syncReconcileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		locationID, err := uuid.Parse(strings.TrimSpace(payload.LocationID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid locationId"))
			return
		}
		start, err := time.Parse(dateLayout, payload.Start)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "start must be YYYY-MM-DD"))
			return
		}
		end, err := time.Parse(dateLayout, payload.End)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "end must be YYYY-MM-DD"))
			return
		}
		if end.Before(start) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "end must not precede start"))
			return
		}
		end = end.Add(24*time.Hour - time.Nanosecond)

		location, err := locations.FindByID(r.Context(), locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if location == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "location not found"))
			return
		}
		if location.WorkSuiteFormID == "" && location.WorkSuiteClockID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "location has no platform mapping"))
			return
		}

		report, err := svc.Reconcile(r.Context(), *location, start, end)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
