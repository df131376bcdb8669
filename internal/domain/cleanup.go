package domain

import "time"

// CleanupCriteria selects assets for the retention sweep. Zero-valued fields
// are wildcards; supplied filters combine with AND semantics.
type CleanupCriteria struct {
	WorldID       string
	Status        AssetStatus
	OlderThanDays int
	DryRun        bool
}

// Cutoff derives the age filter from OlderThanDays at invocation time.
// An absent age filter (OlderThanDays <= 0) means no cutoff at all.
func (c CleanupCriteria) Cutoff(now time.Time) (time.Time, bool) {
	if c.OlderThanDays <= 0 {
		return time.Time{}, false
	}
	return now.Add(-time.Duration(c.OlderThanDays) * 24 * time.Hour), true
}

// CleanupResult reports the matched set. Counts and sizes are computed from
// the metadata records regardless of dry-run; under dry-run they read as
// "would delete".
type CleanupResult struct {
	DeletedCount int      `json:"deleted_count"`
	FreedSpace   int64    `json:"freed_space"`
	AssetIDs     []string `json:"assets"`
}
