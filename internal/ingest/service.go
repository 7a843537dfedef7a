package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
	"github.com/dcastellanos/shiftpay-backend/pkg/enums"
	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
	"github.com/dcastellanos/shiftpay-backend/pkg/metrics"
	"github.com/dcastellanos/shiftpay-backend/pkg/worksuite"
)

// Webhook event types delivered by the platform.
const (
	EventFormSubmitted = "form.submitted"
	EventFormUpdated   = "form.updated"
	EventFormDeleted   = "form.deleted"
	EventTimeCreated   = "time.created"
	EventTimeUpdated   = "time.updated"
	EventTimeDeleted   = "time.deleted"
)

// EventRepository is the persistence surface the pipeline writes through.
type EventRepository interface {
	Upsert(ctx context.Context, event *models.ProductionEvent) error
	SoftDelete(ctx context.Context, externalEventID string, at time.Time) (bool, error)
}

// locationDirectory maps an external form/clock id to its configured location.
type locationDirectory interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.Location, error)
}

// identityResolver resolves one platform user id to a payroll email.
type identityResolver interface {
	ResolveUser(ctx context.Context, externalUserID int64) (string, error)
}

// platformLister is the slice of the platform client the poll path uses.
type platformLister interface {
	ListFormSubmissions(ctx context.Context, formID string, start, end time.Time, offset *int) (*worksuite.SubmissionPage, error)
	ListTimeActivities(ctx context.Context, clockID string, start, end time.Time, offset *int) (*worksuite.TimeActivityPage, error)
}

// ServiceParams configure the ingestion service.
type ServiceParams struct {
	Repo      EventRepository
	Locations locationDirectory
	Resolver  identityResolver
	Platform  platformLister
	Metrics   *metrics.SyncMetrics
	Logger    *logger.Logger
}

// Service normalizes platform events into local production-event rows.
// Push notifications and poll reconciliation converge on the same upsert, so
// either path may run first, repeat, or overlap with the other.
type Service struct {
	repo      EventRepository
	locations locationDirectory
	resolver  identityResolver
	platform  platformLister
	metrics   *metrics.SyncMetrics
	logg      *logger.Logger
}

// NewService builds the ingestion service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event repo required")
	}
	if params.Locations == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "location directory required")
	}
	if params.Resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "identity resolver required")
	}
	if params.Platform == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "platform client required")
	}
	return &Service{
		repo:      params.Repo,
		locations: params.Locations,
		resolver:  params.Resolver,
		platform:  params.Platform,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

// WebhookEvent is the push-path notification body.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  *WebhookPayload `json:"data"`
}

// WebhookPayload carries the event's submission or clock-entry fields; which
// subset is populated depends on the event type.
type WebhookPayload struct {
	ID          string                    `json:"id"`
	FormID      string                    `json:"form_id"`
	UserID      int64                     `json:"user_id"`
	SubmittedAt time.Time                 `json:"submitted_at"`
	Answers     map[string]any            `json:"answers"`
	ClockID     string                    `json:"clock_id"`
	ClockIn     *int64                    `json:"clock_in"`
	ClockOut    *int64                    `json:"clock_out"`
	Breaks      []worksuite.BreakInterval `json:"breaks"`
}

// HandleEvent applies one webhook delivery. Create and update notifications
// share the delete-clearing upsert; a delete for an unknown id is a no-op.
// Failed identity resolution never fails the delivery: the event is stored
// unresolved and flagged as a reconciliation gap.
func (s *Service) HandleEvent(ctx context.Context, event *WebhookEvent) error {
	if event == nil || strings.TrimSpace(event.Event) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event is required")
	}
	if event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event data is required")
	}
	s.metrics.IncWebhookEvent(event.Event)

	switch event.Event {
	case EventFormSubmitted, EventFormUpdated:
		if event.Data.ID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
		}
		location, err := s.mappedLocation(ctx, event.Data.ID, event.Data.FormID)
		if err != nil || location == nil {
			return err
		}
		_, err = s.applySubmission(ctx, worksuite.FormSubmission{
			ID:          event.Data.ID,
			FormID:      event.Data.FormID,
			UserID:      event.Data.UserID,
			SubmittedAt: event.Data.SubmittedAt,
			Answers:     event.Data.Answers,
		}, location.Label)
		return err
	case EventTimeCreated, EventTimeUpdated:
		if event.Data.ID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
		}
		location, err := s.mappedLocation(ctx, event.Data.ID, event.Data.ClockID)
		if err != nil || location == nil {
			return err
		}
		_, err = s.applyTimeActivity(ctx, worksuite.TimeActivity{
			ID:       event.Data.ID,
			ClockID:  event.Data.ClockID,
			UserID:   event.Data.UserID,
			ClockIn:  event.Data.ClockIn,
			ClockOut: event.Data.ClockOut,
			Breaks:   event.Data.Breaks,
		}, location.Label)
		return err
	case EventFormDeleted, EventTimeDeleted:
		if event.Data.ID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
		}
		touched, err := s.repo.SoftDelete(ctx, event.Data.ID, time.Now().UTC())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "soft delete production event")
		}
		if !touched && s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{"event_id": event.Data.ID})
			s.logg.Info(logCtx, "delete for unknown event ignored")
		}
		return nil
	default:
		return nil
	}
}

// mappedLocation looks up the location configured for an external form or
// clock id. Events outside the configured mapping never become payroll
// events; label guessing from answer payloads is not done. A nil location
// with a nil error means the event should be skipped.
func (s *Service) mappedLocation(ctx context.Context, eventID, externalID string) (*models.Location, error) {
	location, err := s.locations.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "look up location mapping")
	}
	if location == nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"event_id":    eventID,
			"external_id": externalID,
		})
		s.logg.Warn(logCtx, "event for unmapped source skipped")
	}
	return location, nil
}

// ReconcileReport summarizes one poll cycle.
type ReconcileReport struct {
	Pages      int `json:"pages"`
	Applied    int `json:"applied"`
	Unresolved int `json:"unresolved"`
}

// Reconcile pulls the platform's submission and clock-entry listings for a
// location and window and applies every item through the same upsert as the
// push path. The offset cursor comes from each response, never from client
// arithmetic; each loop ends when the platform withholds a cursor or returns
// an empty page. Cancellation is honored between pages. An upstream failure
// aborts the cycle but keeps already-applied pages; reruns are safe because
// the upsert dedupes.
func (s *Service) Reconcile(ctx context.Context, location models.Location, start, end time.Time) (*ReconcileReport, error) {
	report := &ReconcileReport{}

	if location.WorkSuiteFormID != "" {
		if err := s.reconcileForms(ctx, location, start, end, report); err != nil {
			return report, err
		}
	}
	if location.WorkSuiteClockID != "" {
		if err := s.reconcileTimes(ctx, location, start, end, report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (s *Service) reconcileForms(ctx context.Context, location models.Location, start, end time.Time, report *ReconcileReport) error {
	var offset *int
	for {
		if err := ctx.Err(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reconcile canceled")
		}

		page, err := s.platform.ListFormSubmissions(ctx, location.WorkSuiteFormID, start, end, offset)
		if err != nil {
			return err
		}
		report.Pages++
		s.metrics.IncPollPage("form_submissions")

		if len(page.Submissions) == 0 {
			return nil
		}

		for _, submission := range page.Submissions {
			resolved, err := s.applySubmission(ctx, submission, location.Label)
			if err != nil {
				return err
			}
			report.Applied++
			if !resolved {
				report.Unresolved++
			}
		}

		if page.NextOffset == nil {
			return nil
		}
		offset = page.NextOffset
	}
}

func (s *Service) reconcileTimes(ctx context.Context, location models.Location, start, end time.Time, report *ReconcileReport) error {
	var offset *int
	for {
		if err := ctx.Err(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reconcile canceled")
		}

		page, err := s.platform.ListTimeActivities(ctx, location.WorkSuiteClockID, start, end, offset)
		if err != nil {
			return err
		}
		report.Pages++
		s.metrics.IncPollPage("time_activities")

		if len(page.Activities) == 0 {
			return nil
		}

		for _, activity := range page.Activities {
			resolved, err := s.applyTimeActivity(ctx, activity, location.Label)
			if err != nil {
				return err
			}
			report.Applied++
			if !resolved {
				report.Unresolved++
			}
		}

		if page.NextOffset == nil {
			return nil
		}
		offset = page.NextOffset
	}
}

// applySubmission normalizes one platform submission and upserts it. The
// returned flag reports whether the submitting identity resolved to an email.
func (s *Service) applySubmission(ctx context.Context, submission worksuite.FormSubmission, locationLabel string) (bool, error) {
	resolvedEmail := s.resolveEmail(ctx, submission.ID, submission.UserID)

	occurredAt := submission.SubmittedAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	event := &models.ProductionEvent{
		ExternalEventID:          submission.ID,
		Kind:                     enums.EventKindForm,
		FormOrClockID:            submission.FormID,
		SubmittingExternalUserID: submission.UserID,
		ResolvedEmail:            resolvedEmail,
		LocationLabel:            locationLabel,
		OccurredAt:               occurredAt.UTC(),
		DeletedAt:                nil,
	}
	if err := s.repo.Upsert(ctx, event); err != nil {
		return resolvedEmail != nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert production event")
	}
	s.metrics.IncEventUpserted()
	return resolvedEmail != nil, nil
}

// applyTimeActivity normalizes one clock entry and upserts it with its shift
// and break intervals, so hourly totals can later be served from the local
// store. An entry missing its interval aborts with UNSUPPORTED_SHAPE.
func (s *Service) applyTimeActivity(ctx context.Context, activity worksuite.TimeActivity, locationLabel string) (bool, error) {
	if err := activity.Validate(); err != nil {
		return false, err
	}

	resolvedEmail := s.resolveEmail(ctx, activity.ID, activity.UserID)

	shift := activity.ShiftSeconds()
	breaks := activity.BreakSecondsTotal()

	event := &models.ProductionEvent{
		ExternalEventID:          activity.ID,
		Kind:                     enums.EventKindTime,
		FormOrClockID:            activity.ClockID,
		SubmittingExternalUserID: activity.UserID,
		ResolvedEmail:            resolvedEmail,
		LocationLabel:            locationLabel,
		OccurredAt:               time.Unix(*activity.ClockIn, 0).UTC(),
		ShiftSeconds:             &shift,
		BreakSeconds:             &breaks,
		DeletedAt:                nil,
	}
	if err := s.repo.Upsert(ctx, event); err != nil {
		return resolvedEmail != nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert production event")
	}
	s.metrics.IncEventUpserted()
	return resolvedEmail != nil, nil
}

// resolveEmail maps a platform user id to a payroll email. Resolution failure
// never fails the event: a nil return stores the row unresolved for a later
// reconciliation pass to fill in.
func (s *Service) resolveEmail(ctx context.Context, eventID string, userID int64) *string {
	email, err := s.resolver.ResolveUser(ctx, userID)
	if err != nil || email == "" {
		s.metrics.IncIdentityUnresolved()
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"event_id":         eventID,
				"external_user_id": userID,
			})
			s.logg.Warn(logCtx, "identity unresolved, storing event for reconciliation")
		}
		return nil
	}
	return &email
}
