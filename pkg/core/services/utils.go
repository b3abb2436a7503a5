package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/jakechorley/admissions/pkg/core/allocator"
	"github.com/jakechorley/admissions/pkg/db"
)

// DateLayout is the layout used for list dates throughout the CLI and logs
const DateLayout = "2006-01-02"

// dateLayouts are accepted by ParseDate in order
var dateLayouts = []string{DateLayout, "02.01.2006"}

// ParseDate parses a list date in ISO (2025-08-01) or day-first (01.08.2025) form
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if date, err := time.Parse(layout, value); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or DD.MM.YYYY", value)
}

// DateRange returns every calendar day from start to end inclusive
func DateRange(start, end time.Time) ([]time.Time, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", end.Format(DateLayout), start.Format(DateLayout))
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}

// toAdmissionResults converts an allocation outcome into admission_result rows
func toAdmissionResults(date time.Time, outcome *allocator.AllocationOutcome) []db.AdmissionResult {
	results := make([]db.AdmissionResult, 0, len(outcome.ProgramOrder))
	for _, result := range outcome.OrderedResults() {
		row := db.AdmissionResult{
			ProgramCode:     result.ProgramCode,
			CalculationDate: date,
			SeatsFilled:     result.SeatsFilled,
			IsShortage:      result.Shortage,
			Enrolled:        make([]db.EnrolledApplicant, 0, len(result.Admitted)),
		}
		if !result.Shortage {
			score := result.PassingScore
			row.PassingScore = &score
		}

		for _, admitted := range result.Admitted {
			row.Enrolled = append(row.Enrolled, db.EnrolledApplicant{
				ApplicantID:     admitted.ApplicantID,
				Priority:        admitted.Priority,
				TotalScore:      admitted.TotalScore,
				EnrollmentOrder: admitted.Order,
			})
		}

		results = append(results, row)
	}
	return results
}
