package aggregate

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dcastellanos/shiftpay-backend/internal/identity"
	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
	"github.com/dcastellanos/shiftpay-backend/pkg/metrics"
	"github.com/dcastellanos/shiftpay-backend/pkg/worksuite"
)

// eventStore is the cache-backed realization's source: locally synced
// production events.
type eventStore interface {
	ListLive(ctx context.Context, locationLabel string, start, end time.Time) ([]models.ProductionEvent, error)
}

// platformLister is the direct realization's source: live platform listings.
type platformLister interface {
	ListFormSubmissions(ctx context.Context, formID string, start, end time.Time, offset *int) (*worksuite.SubmissionPage, error)
	ListTimeActivities(ctx context.Context, clockID string, start, end time.Time, offset *int) (*worksuite.TimeActivityPage, error)
}

// identityResolver builds the email map for direct aggregation.
type identityResolver interface {
	ResolveAll(ctx context.Context, candidateEmails []string) (*identity.Resolution, error)
}

// ServiceParams configure the aggregation service.
type ServiceParams struct {
	Store    eventStore
	Platform platformLister
	Resolver identityResolver
	Metrics  *metrics.SyncMetrics
	Logger   *logger.Logger
}

// Service reduces raw events and clock entries to per-employee totals for a
// pay period. Every requested email appears in the output, zero-valued when
// nothing qualified; identities outside the candidate set are dropped from
// the output and counted for observability.
type Service struct {
	store    eventStore
	platform platformLister
	resolver identityResolver
	metrics  *metrics.SyncMetrics
	logg     *logger.Logger
}

// NewService builds the aggregation service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event store required")
	}
	if params.Platform == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "platform client required")
	}
	if params.Resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "identity resolver required")
	}
	return &Service{
		store:    params.Store,
		platform: params.Platform,
		resolver: params.Resolver,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// seed pre-populates the output map with a zero for every candidate email.
func seed(employeeEmails []string) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal, len(employeeEmails))
	for _, email := range employeeEmails {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized != "" {
			totals[normalized] = decimal.Zero
		}
	}
	return totals
}

// CountsFromStore counts locally synced, non-deleted form submissions per
// employee inside the window. This is the cache-backed realization; it never
// touches the platform. Clock entries in the store are hourly input, not
// production, and are left to HoursFromStore.
func (s *Service) CountsFromStore(ctx context.Context, locationLabel string, start, end time.Time, employeeEmails []string) (map[string]decimal.Decimal, error) {
	totals := seed(employeeEmails)

	events, err := s.store.ListLive(ctx, locationLabel, start, end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list production events")
	}

	for _, event := range events {
		if event.TimeEntry() {
			continue
		}
		if !event.Resolved() {
			s.metrics.IncAggregateDropped()
			continue
		}
		email := strings.ToLower(*event.ResolvedEmail)
		if _, ok := totals[email]; !ok {
			s.metrics.IncAggregateDropped()
			continue
		}
		totals[email] = totals[email].Add(decimal.NewFromInt(1))
	}
	return totals, nil
}

// HoursFromStore sums worked clock time per employee out of the locally
// synced clock entries: shift seconds minus break seconds, accumulated in
// whole seconds and rounded half-up to two decimals only at the end. Like
// CountsFromStore it never touches the platform.
func (s *Service) HoursFromStore(ctx context.Context, locationLabel string, start, end time.Time, employeeEmails []string) (map[string]decimal.Decimal, error) {
	totals := seed(employeeEmails)

	events, err := s.store.ListLive(ctx, locationLabel, start, end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list production events")
	}

	seconds := make(map[string]int64, len(totals))
	for _, event := range events {
		if !event.TimeEntry() {
			continue
		}
		if !event.Resolved() {
			s.metrics.IncAggregateDropped()
			continue
		}
		email := strings.ToLower(*event.ResolvedEmail)
		if _, ok := totals[email]; !ok {
			s.metrics.IncAggregateDropped()
			continue
		}
		seconds[email] += event.WorkedSeconds()
	}

	for email, total := range seconds {
		totals[email] = decimal.NewFromInt(total).
			Div(decimal.NewFromInt(3600)).
			Round(2)
	}
	return totals, nil
}

// CountsFromPlatform counts form submissions straight off the platform
// listing for the window. This is the direct realization used when no local
// cache exists; the reduction is identical to CountsFromStore.
func (s *Service) CountsFromPlatform(ctx context.Context, formID string, start, end time.Time, employeeEmails []string) (map[string]decimal.Decimal, error) {
	totals := seed(employeeEmails)

	resolution, err := s.resolver.ResolveAll(ctx, employeeEmails)
	if err != nil {
		return nil, err
	}
	emailByID := invert(resolution)

	var offset *int
	for {
		if err := ctx.Err(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregation canceled")
		}
		page, err := s.platform.ListFormSubmissions(ctx, formID, start, end, offset)
		if err != nil {
			return nil, err
		}
		s.metrics.IncPollPage("form_submissions")
		if len(page.Submissions) == 0 {
			break
		}
		for _, submission := range page.Submissions {
			email, ok := emailByID[submission.UserID]
			if !ok {
				s.metrics.IncAggregateDropped()
				continue
			}
			totals[email] = totals[email].Add(decimal.NewFromInt(1))
		}
		if page.NextOffset == nil {
			break
		}
		offset = page.NextOffset
	}
	return totals, nil
}

// HoursFromPlatform sums worked clock time per employee: shift length minus
// manually logged breaks, accumulated in whole seconds and rounded half-up to
// two decimals only at the end. A clock entry that does not match the
// documented schema aborts the aggregation with UNSUPPORTED_SHAPE.
func (s *Service) HoursFromPlatform(ctx context.Context, clockID string, start, end time.Time, employeeEmails []string) (map[string]decimal.Decimal, error) {
	totals := seed(employeeEmails)

	resolution, err := s.resolver.ResolveAll(ctx, employeeEmails)
	if err != nil {
		return nil, err
	}
	emailByID := invert(resolution)

	seconds := make(map[string]int64, len(totals))

	var offset *int
	for {
		if err := ctx.Err(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregation canceled")
		}
		page, err := s.platform.ListTimeActivities(ctx, clockID, start, end, offset)
		if err != nil {
			return nil, err
		}
		s.metrics.IncPollPage("time_activities")
		if len(page.Activities) == 0 {
			break
		}
		for _, activity := range page.Activities {
			if err := activity.Validate(); err != nil {
				return nil, err
			}
			email, ok := emailByID[activity.UserID]
			if !ok {
				s.metrics.IncAggregateDropped()
				continue
			}
			seconds[email] += activity.WorkedSeconds()
		}
		if page.NextOffset == nil {
			break
		}
		offset = page.NextOffset
	}

	for email, total := range seconds {
		totals[email] = decimal.NewFromInt(total).
			Div(decimal.NewFromInt(3600)).
			Round(2)
	}
	return totals, nil
}

func invert(resolution *identity.Resolution) map[int64]string {
	emailByID := make(map[int64]string, len(resolution.ByEmail))
	for email, id := range resolution.ByEmail {
		emailByID[id] = email
	}
	return emailByID
}
