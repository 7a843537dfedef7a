package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/dcastellanos/shiftpay-backend/internal/ingest"
	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
)

const defaultReconcileWindow = 48 * time.Hour

// ReconcileJobParams configure the submission reconciliation job.
type ReconcileJobParams struct {
	Logger    *logger.Logger
	Ingest    reconciler
	Locations activeLocationLister
	Window    time.Duration
}

type reconciler interface {
	Reconcile(ctx context.Context, location models.Location, start, end time.Time) (*ingest.ReconcileReport, error)
}

type activeLocationLister interface {
	ListActive(ctx context.Context) ([]models.Location, error)
}

// NewReconcileJob builds the cron job that replays the platform's submission
// listing for every active location. The poll path closes the gaps webhooks
// leave: missed deliveries, out-of-order updates, and events stored with an
// unresolved identity.
func NewReconcileJob(params ReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ingest == nil {
		return nil, fmt.Errorf("ingest service required")
	}
	if params.Locations == nil {
		return nil, fmt.Errorf("location lister required")
	}
	window := params.Window
	if window <= 0 {
		window = defaultReconcileWindow
	}
	return &reconcileJob{
		logg:      params.Logger,
		ingest:    params.Ingest,
		locations: params.Locations,
		window:    window,
		now:       time.Now,
	}, nil
}

type reconcileJob struct {
	logg      *logger.Logger
	ingest    reconciler
	locations activeLocationLister
	window    time.Duration
	now       func() time.Time
}

func (j *reconcileJob) Name() string { return "submission-reconcile" }

// Run reconciles each active location independently; one location's failure
// never blocks the rest of the sweep.
func (j *reconcileJob) Run(ctx context.Context) error {
	locations, err := j.locations.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active locations: %w", err)
	}

	end := j.now().UTC()
	start := end.Add(-j.window)

	var errs []error
	for _, location := range locations {
		if location.WorkSuiteFormID == "" && location.WorkSuiteClockID == "" {
			continue
		}
		report, err := j.ingest.Reconcile(ctx, location, start, end)
		logCtx := j.logg.WithLocationLabel(ctx, location.Label)
		if err != nil {
			j.logg.Error(logCtx, "location reconcile failed", err)
			errs = append(errs, fmt.Errorf("reconcile %s: %w", location.Label, err))
			continue
		}
		logCtx = j.logg.WithFields(logCtx, map[string]any{
			"pages":   report.Pages,
			"applied": report.Applied,
		})
		if report.Unresolved > 0 {
			logCtx = j.logg.WithField(logCtx, "unresolved", report.Unresolved)
		}
		j.logg.Info(logCtx, "location reconcile complete")
	}
	return multierr.Combine(errs...)
}
