package identity

import (
	"context"
	"strings"
	"sync"

	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
	"github.com/dcastellanos/shiftpay-backend/pkg/worksuite"
)

// directory is the slice of the WorkSuite client the resolver needs.
type directory interface {
	ListUsers(ctx context.Context, page int) ([]worksuite.User, error)
	GetUser(ctx context.Context, id int64) (*worksuite.User, error)
	PageSize() int
	MaxUserPages() int
}

// Resolution maps lower-cased payroll emails to WorkSuite user ids for one
// sync pass. Truncated is set when pagination stopped at the page cap instead
// of a short page, meaning coverage may be partial. Resolutions are never
// persisted; each sync builds its own.
type Resolution struct {
	ByEmail   map[string]int64
	Truncated bool
}

// ExternalID returns the platform id for the given email, if resolved.
func (r Resolution) ExternalID(email string) (int64, bool) {
	id, ok := r.ByEmail[strings.ToLower(strings.TrimSpace(email))]
	return id, ok
}

// Resolver bridges WorkSuite's numeric user ids and payroll emails.
type Resolver struct {
	dir  directory
	logg *logger.Logger

	mu   sync.Mutex
	memo map[int64]string
}

// NewResolver builds a resolver over the given user directory.
func NewResolver(dir directory, logg *logger.Logger) (*Resolver, error) {
	if dir == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user directory required")
	}
	return &Resolver{
		dir:  dir,
		logg: logg,
		memo: make(map[int64]string),
	}, nil
}

// ResolveAll pages through the user directory accumulating ids for the
// candidate emails. Pagination stops on a short page, on the configured page
// cap, or as soon as every candidate is resolved. A failed page fetch aborts
// the whole resolution; nothing is committed anywhere.
func (r *Resolver) ResolveAll(ctx context.Context, candidateEmails []string) (*Resolution, error) {
	wanted := make(map[string]struct{}, len(candidateEmails))
	for _, email := range candidateEmails {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized != "" {
			wanted[normalized] = struct{}{}
		}
	}

	resolution := &Resolution{ByEmail: make(map[string]int64, len(wanted))}
	if len(wanted) == 0 {
		return resolution, nil
	}

	pageSize := r.dir.PageSize()
	maxPages := r.dir.MaxUserPages()

	for page := 1; page <= maxPages; page++ {
		users, err := r.dir.ListUsers(ctx, page)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "list worksuite users")
		}

		for _, user := range users {
			email := strings.ToLower(strings.TrimSpace(user.Email))
			if email == "" {
				continue
			}
			r.remember(user.ID, email)
			if _, ok := wanted[email]; ok {
				resolution.ByEmail[email] = user.ID
			}
		}

		if len(resolution.ByEmail) == len(wanted) {
			return resolution, nil
		}
		if len(users) < pageSize {
			return resolution, nil
		}
		if page == maxPages {
			// the cap is a runaway-loop guard; the caller must be able to
			// tell partial coverage from a complete listing
			resolution.Truncated = true
			if r.logg != nil {
				r.logg.Warn(r.logg.WithFields(ctx, map[string]any{
					"max_pages": maxPages,
					"resolved":  len(resolution.ByEmail),
					"wanted":    len(wanted),
				}), "identity resolution truncated at page cap")
			}
		}
	}

	return resolution, nil
}

// ResolveUser returns the payroll email for one WorkSuite user id. Lookups
// are memoized for the life of the resolver, which callers scope to a single
// sync operation.
func (r *Resolver) ResolveUser(ctx context.Context, externalUserID int64) (string, error) {
	if email, ok := r.recall(externalUserID); ok {
		return email, nil
	}

	user, err := r.dir.GetUser(ctx, externalUserID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "fetch worksuite user")
	}

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "worksuite user has no email")
	}
	r.remember(externalUserID, email)
	return email, nil
}

func (r *Resolver) remember(id int64, email string) {
	r.mu.Lock()
	r.memo[id] = email
	r.mu.Unlock()
}

func (r *Resolver) recall(id int64) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email, ok := r.memo[id]
	return email, ok
}
