package checker

import (
	"context"
	"strings"

	"github.com/tphakala/releasewatch/internal/datastore"
	"github.com/tphakala/releasewatch/internal/errors"
	"github.com/tphakala/releasewatch/internal/model"
)

// persist writes every extracted candidate and, when the extraction named one,
// the target's current version. It returns the number of new records.
func (c *Checker) persist(ctx context.Context, target model.Target, extracted *model.ExtractionResult, v verdict) (int, error) {
	added := 0
	seen := make(map[string]struct{}, len(extracted.Versions))

	for i := range extracted.Versions {
		candidate := extracted.Versions[i]
		candidate.Version = strings.TrimSpace(candidate.Version)
		if candidate.Version == "" {
			continue
		}
		// A page may list the same release twice
		if _, dup := seen[candidate.Version]; dup {
			continue
		}
		seen[candidate.Version] = struct{}{}

		inserted, err := c.saveVersion(ctx, target.ID, candidate, v)
		if err != nil {
			return added, err
		}
		if inserted {
			added++
		}
	}

	if extracted.HasCurrentVersion() {
		current := strings.TrimSpace(extracted.CurrentVersion)
		if err := c.store.UpdateTargetCurrentVersion(ctx, target.ID, current, extracted.ReleaseDate, c.now()); err != nil {
			return added, err
		}
	}

	return added, nil
}

// saveVersion refreshes the record for (softwareID, candidate.Version) or inserts
// a new one. It reports whether a row was created.
func (c *Checker) saveVersion(ctx context.Context, softwareID string, candidate model.VersionCandidate, v verdict) (bool, error) {
	update := datastore.VersionRecordUpdate{
		ReleaseDate: candidate.ReleaseDate,
		Notes:       candidate.Notes,
		Type:        string(candidate.Type),
		BuildNumber: candidate.BuildNumber,
	}

	existing, err := c.store.FindVersionRecord(ctx, softwareID, candidate.Version)
	switch {
	case err == nil:
		return false, c.store.UpdateVersionRecord(ctx, existing.ID, update)
	case !errors.IsNotFound(err):
		return false, err
	}

	inserted, err := c.store.InsertVersionRecord(ctx, &datastore.VersionRecord{
		SoftwareID:           softwareID,
		Version:              candidate.Version,
		ReleaseDate:          candidate.ReleaseDate,
		Notes:                candidate.Notes,
		Type:                 string(candidate.Type),
		BuildNumber:          candidate.BuildNumber,
		ConfidenceScore:      v.score,
		RequiresManualReview: v.requiresReview,
		NewsletterVerified:   !v.requiresReview,
	})
	if err != nil || inserted {
		return inserted, err
	}

	// Another run stored the same version between the lookup and the insert
	existing, err = c.store.FindVersionRecord(ctx, softwareID, candidate.Version)
	if err != nil {
		return false, err
	}
	return false, c.store.UpdateVersionRecord(ctx, existing.ID, update)
}
