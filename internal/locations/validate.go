package locations

import (
	"context"
	"fmt"

	"github.com/dcastellanos/shiftpay-backend/pkg/db/models"
)

// lister is the repository surface mapping validation needs.
type lister interface {
	ListActive(ctx context.Context) ([]models.Location, error)
}

// ValidateMapping checks the location mapping at startup. Every active
// location must carry at least one external identifier, and no identifier may
// belong to two locations. A broken mapping fails the process before any
// event could be filed against a guessed location.
func ValidateMapping(ctx context.Context, repo lister) error {
	locations, err := repo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("load location mapping: %w", err)
	}
	if len(locations) == 0 {
		return fmt.Errorf("no active locations configured")
	}

	claimed := map[string]string{}
	claim := func(externalID, label string) error {
		if externalID == "" {
			return nil
		}
		if owner, ok := claimed[externalID]; ok && owner != label {
			return fmt.Errorf("external id %q mapped to both %q and %q", externalID, owner, label)
		}
		claimed[externalID] = label
		return nil
	}

	for _, location := range locations {
		if location.WorkSuiteFormID == "" && location.WorkSuiteClockID == "" {
			return fmt.Errorf("location %q has no external form or clock id", location.Label)
		}
		if err := claim(location.WorkSuiteFormID, location.Label); err != nil {
			return err
		}
		if err := claim(location.WorkSuiteClockID, location.Label); err != nil {
			return err
		}
		for _, alias := range location.FormAliases {
			if err := claim(alias, location.Label); err != nil {
				return err
			}
		}
	}
	return nil
}
