package db

import (
	"fmt"
	"time"

	"github.com/jakechorley/admissions/pkg/core/model"
)

// SnapshotChanges describes how to turn the stored list of a date into an uploaded one
type SnapshotChanges struct {
	Create    []ApplicationRecord
	Update    []ApplicationRecord
	DeleteIDs []string
	Unchanged int
}

// IsEmpty reports whether applying the changes would be a no-op
func (c SnapshotChanges) IsEmpty() bool {
	return len(c.Create) == 0 && len(c.Update) == 0 && len(c.DeleteIDs) == 0
}

type recordKey struct {
	applicantID int64
	programCode string
}

// DiffSnapshot compares the stored rows of a list date with an uploaded snapshot.
// Rows are matched on (applicant, program). Matched rows keep their id; rows missing
// from the upload are deleted. Returns an error if the upload repeats a pair.
func DiffSnapshot(date time.Time, existing []ApplicationRecord, incoming []model.ApplicationRecord) (SnapshotChanges, error) {
	var changes SnapshotChanges

	stored := make(map[recordKey]ApplicationRecord, len(existing))
	for _, row := range existing {
		stored[recordKey{row.ApplicantID, row.ProgramCode}] = row
	}

	seen := make(map[recordKey]bool, len(incoming))
	for _, r := range incoming {
		key := recordKey{r.ApplicantID, r.ProgramCode}
		if seen[key] {
			return SnapshotChanges{}, fmt.Errorf("snapshot contains applicant %d for program %q more than once", r.ApplicantID, r.ProgramCode)
		}
		seen[key] = true

		row, exists := stored[key]
		if !exists {
			changes.Create = append(changes.Create, NewApplicationRecord(date, r))
			continue
		}

		if row.sameContent(r) {
			changes.Unchanged++
			continue
		}

		updated := NewApplicationRecord(date, r)
		updated.ID = row.ID
		changes.Update = append(changes.Update, updated)
	}

	for _, row := range existing {
		if !seen[recordKey{row.ApplicantID, row.ProgramCode}] {
			changes.DeleteIDs = append(changes.DeleteIDs, row.ID)
		}
	}

	return changes, nil
}
