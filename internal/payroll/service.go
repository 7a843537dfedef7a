package payroll

import (
	"context"

	"github.com/google/uuid"

	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
	"github.com/dcastellanos/shiftpay-backend/pkg/enums"
	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	pkgpagination "github.com/dcastellanos/shiftpay-backend/pkg/pagination"
)

// submissionReader is the read surface the service exposes over the store.
type submissionReader interface {
	FindSubmission(ctx context.Context, id uuid.UUID) (*models.PayrollSubmission, error)
	ListSubmissions(ctx context.Context, opts listQuery) ([]models.PayrollSubmission, error)
}

// ServiceParams configure the payroll read service.
type ServiceParams struct {
	Repo submissionReader
}

// Service serves submitted payroll history.
type Service struct {
	repo submissionReader
}

// NewService builds the payroll read service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payroll repo required")
	}
	return &Service{repo: params.Repo}, nil
}

// GetSubmission loads a submission with its entries.
func (s *Service) GetSubmission(ctx context.Context, id uuid.UUID) (*models.PayrollSubmission, error) {
	submission, err := s.repo.FindSubmission(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payroll submission")
	}
	if submission == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payroll submission not found")
	}
	return submission, nil
}

// ListSubmissions returns a page of a location's submissions, newest first.
func (s *Service) ListSubmissions(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.LocationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location id is required")
	}

	limit := pkgpagination.NormalizeLimit(params.Limit)
	query := listQuery{
		locationID: params.LocationID,
		limit:      pkgpagination.LimitWithBuffer(params.Limit),
	}
	if params.Status != "" {
		status, err := enums.ParseSubmissionStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		query.status = &status
	}
	if params.Cursor != "" {
		cursor, err := pkgpagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.cursor = cursor
	}

	rows, err := s.repo.ListSubmissions(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list payroll submissions")
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = pkgpagination.EncodeCursor(pkgpagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		rows = rows[:limit]
	}

	items := make([]ListItem, len(rows))
	for i, row := range rows {
		items[i] = toListItem(row)
	}

	return &ListResult{
		Items:  items,
		Cursor: nextCursor,
	}, nil
}
