package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/admissions/pkg/db"
)

// ApplicationFilter narrows ListApplications. Zero values match everything.
type ApplicationFilter struct {
	ProgramCode string
	Priority    int
	Consent     *bool
}

func (f ApplicationFilter) matches(r db.ApplicationRecord) bool {
	if f.ProgramCode != "" && r.ProgramCode != f.ProgramCode {
		return false
	}
	if f.Priority != 0 && r.Priority != f.Priority {
		return false
	}
	if f.Consent != nil && r.ConsentGiven != *f.Consent {
		return false
	}
	return true
}

// ListApplications returns the records of a date matching filter, by score descending then applicant
func ListApplications(
	ctx context.Context,
	database RecordReader,
	logger *zap.Logger,
	date time.Time,
	filter ApplicationFilter,
) ([]db.ApplicationRecord, error) {
	logger.Debug("Starting listApplications",
		zap.String("date", date.Format(DateLayout)),
		zap.String("program", filter.ProgramCode),
		zap.Int("priority", filter.Priority))

	rows, err := database.GetRecordsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch application records: %w", err)
	}

	matched := make([]db.ApplicationRecord, 0, len(rows))
	for _, r := range rows {
		if filter.matches(r) {
			matched = append(matched, r)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].TotalScore != matched[j].TotalScore {
			return matched[i].TotalScore > matched[j].TotalScore
		}
		if matched[i].ApplicantID != matched[j].ApplicantID {
			return matched[i].ApplicantID < matched[j].ApplicantID
		}
		return matched[i].ProgramCode < matched[j].ProgramCode
	})

	logger.Debug("Filtered application records", zap.Int("matched", len(matched)), zap.Int("total", len(rows)))

	return matched, nil
}
