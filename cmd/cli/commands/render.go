package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/jakechorley/admissions/pkg/core/allocator"
	"github.com/jakechorley/admissions/pkg/core/model"
	"github.com/jakechorley/admissions/pkg/core/services"
	"github.com/jakechorley/admissions/pkg/db"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

const shortageLabel = "SHORTAGE"

// passingScoreCell formats a passing score, or the shortage marker
func passingScoreCell(result *allocator.ProgramResult) string {
	if result == nil {
		return "-"
	}
	if result.Shortage {
		return shortageLabel
	}
	return fmt.Sprintf("%d", result.PassingScore)
}

func programName(programs []model.Program, code string) string {
	for _, p := range programs {
		if p.Code == code && p.Name != "" {
			return p.Name
		}
	}
	return code
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func renderPassingScores(w io.Writer, programs []model.Program, result *services.CalculatePassingScoresResult) {
	source := "calculated"
	if result.Cached {
		source = "cached"
	}
	fmt.Fprintf(w, "\nPassing scores for %s (%d records, %s)\n\n", result.Date.Format(services.DateLayout), result.RecordCount, source)

	fmt.Fprintf(w, "%-8s %-32s %8s %8s %8s %10s\n", "Code", "Program", "Seats", "Filled", "Free", "Passing")
	fmt.Fprintln(w, strings.Repeat("-", 79))
	for _, r := range result.Outcome.OrderedResults() {
		cell := passingScoreCell(r)
		color := colorGreen
		if r.Shortage {
			color = colorRed
		}
		fmt.Fprintf(w, "%-8s %-32s %8d %8d %8d %s%10s%s\n",
			r.ProgramCode, programName(programs, r.ProgramCode), r.Seats, r.SeatsFilled, r.RemainingSeats(), color, cell, colorReset)
	}
	fmt.Fprintf(w, "\nUnassigned consenting applicants: %d\n", len(result.Outcome.Unassigned))

	if result.Saved {
		fmt.Fprintf(w, "\n✓ Results saved\n")
	}
	fmt.Fprintln(w)
}

func renderStatistics(w io.Writer, result *services.CalculatePassingScoresResult) {
	fmt.Fprintf(w, "\nStatistics for %s\n\n", result.Date.Format(services.DateLayout))

	fmt.Fprintf(w, "%-8s %8s %8s", "Code", "Apps", "Consent")
	for p := model.MinPriority; p <= model.MaxPriority; p++ {
		fmt.Fprintf(w, " %9s", fmt.Sprintf("P%d in/adm", p))
	}
	fmt.Fprintf(w, " %8s %8s %10s\n", "Highest", "Lowest", "Passing")
	fmt.Fprintln(w, strings.Repeat("-", 26+10*model.MaxPriority+29))

	for _, r := range result.Outcome.OrderedResults() {
		fmt.Fprintf(w, "%-8s %8d %8d", r.ProgramCode, r.Stats.Applications, r.Stats.Consents)
		for p := model.MinPriority; p <= model.MaxPriority; p++ {
			fmt.Fprintf(w, " %9s", fmt.Sprintf("%d/%d", r.Stats.AppliedByPriority[p], r.Stats.AdmittedByPriority[p]))
		}
		fmt.Fprintf(w, " %8d %8d %10s\n", r.HighestScore, r.LowestScore, passingScoreCell(r))
	}
	fmt.Fprintln(w)
}

func renderAdmitted(w io.Writer, result *allocator.ProgramResult) {
	fmt.Fprintf(w, "\nAdmitted to %s: %d of %d seats", result.ProgramCode, result.SeatsFilled, result.Seats)
	if result.Shortage {
		fmt.Fprintf(w, " %s(%s)%s", colorRed, shortageLabel, colorReset)
	}
	fmt.Fprintf(w, "\n\n")

	if len(result.Admitted) == 0 {
		fmt.Fprintf(w, "%sNo applicants admitted%s\n\n", colorDim, colorReset)
		return
	}

	fmt.Fprintf(w, "%6s %12s %8s %10s\n", "#", "Applicant", "Score", "Priority")
	fmt.Fprintln(w, strings.Repeat("-", 39))
	for _, a := range result.Admitted {
		fmt.Fprintf(w, "%6d %12d %8d %10d\n", a.Order, a.ApplicantID, a.TotalScore, a.Priority)
	}
	fmt.Fprintln(w)
}

func renderApplications(w io.Writer, records []db.ApplicationRecord) {
	fmt.Fprintf(w, "\nFound %d applications:\n\n", len(records))
	if len(records) == 0 {
		return
	}

	fmt.Fprintf(w, "%12s %-8s %8s %8s %8s %8s %8s %8s %8s\n",
		"Applicant", "Program", "Priority", "Physics", "Russian", "Math", "Achieve", "Total", "Consent")
	fmt.Fprintln(w, strings.Repeat("-", 86))
	for _, r := range records {
		consent := "no"
		if r.ConsentGiven {
			consent = colorGreen + "yes" + colorReset
		}
		fmt.Fprintf(w, "%12d %-8s %8d %8d %8d %8d %8d %8d %8s\n",
			r.ApplicantID, r.ProgramCode, r.Priority, r.PhysicsScore, r.RussianScore,
			r.MathScore, r.AchievementScore, r.TotalScore, consent)
	}
	fmt.Fprintln(w)
}

func renderDynamics(w io.Writer, report *services.DynamicsReport) {
	const dateColWidth = 12

	fmt.Fprintf(w, "\nPassing score dynamics\n\n")

	fmt.Fprintf(w, "%-8s", "Code")
	for _, entry := range report.Entries {
		fmt.Fprintf(w, "%*s", dateColWidth, entry.Date.Format(services.DateLayout))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 8+dateColWidth*len(report.Entries)))

	for _, code := range report.ProgramOrder {
		fmt.Fprintf(w, "%-8s", code)
		for i := range report.Entries {
			score, ok := report.PassingScore(code, i)
			if !ok {
				fmt.Fprintf(w, "%s%*s%s", colorYellow, dateColWidth, shortageLabel, colorReset)
				continue
			}
			fmt.Fprintf(w, "%*d", dateColWidth, score)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

func renderUploadSummary(w io.Writer, summary *services.UploadSummary) {
	fmt.Fprintf(w, "\n✓ Snapshot for %s synced\n\n", summary.Date.Format(services.DateLayout))
	fmt.Fprintf(w, "Records:   %d\n", summary.Total)
	fmt.Fprintf(w, "Created:   %d\n", summary.Created)
	fmt.Fprintf(w, "Updated:   %d\n", summary.Updated)
	fmt.Fprintf(w, "Deleted:   %d\n", summary.Deleted)
	fmt.Fprintf(w, "Unchanged: %d\n\n", summary.Unchanged)
}

func renderUploadHistory(w io.Writer, history []db.UploadHistory) {
	fmt.Fprintf(w, "\nLast %d uploads:\n\n", len(history))
	for _, h := range history {
		status := colorGreen + h.Status + colorReset
		if h.Status != db.UploadStatusSuccess {
			status = colorRed + h.Status + colorReset
		}
		fmt.Fprintf(w, "%s  list %s  %s  total=%d created=%d updated=%d deleted=%d  %.2fs",
			h.UploadedAt.Format("2006-01-02 15:04:05"), h.ListDate.Format(services.DateLayout), status,
			h.RecordsTotal, h.RecordsCreated, h.RecordsUpdated, h.RecordsDeleted, h.ProcessingSeconds)
		if h.ErrorMessage != "" {
			fmt.Fprintf(w, "  %s%s%s", colorDim, h.ErrorMessage, colorReset)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

func renderSavedResults(w io.Writer, date time.Time, results []db.AdmissionResult) {
	fmt.Fprintf(w, "\nSaved results for %s\n\n", date.Format(services.DateLayout))

	fmt.Fprintf(w, "%-8s %8s %10s %10s  %s\n", "Code", "Filled", "Passing", "Enrolled", "Calculated")
	fmt.Fprintln(w, strings.Repeat("-", 62))
	for _, r := range results {
		passing := shortageLabel
		if r.PassingScore != nil {
			passing = fmt.Sprintf("%d", *r.PassingScore)
		}
		fmt.Fprintf(w, "%-8s %8d %10s %10d  %s\n",
			r.ProgramCode, r.SeatsFilled, passing, len(r.Enrolled), r.CalculatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(w)
}
