package allocator

import (
	"fmt"

	"github.com/jakechorley/admissions/pkg/core/model"
)

// OutcomeViolation describes an invariant broken by a final allocation state
type OutcomeViolation struct {
	ProgramCode string `json:"program_code"`
	Description string `json:"description"`
}

// ValidatePrograms checks that every program has a code, a positive seat count, and a unique code
func ValidatePrograms(programs []model.Program) error {
	var problems problemList
	checkPrograms(programs, &problems)
	return problems.err()
}

func checkPrograms(programs []model.Program, problems *problemList) {
	seen := make(map[string]bool, len(programs))
	for i, program := range programs {
		if program.Code == "" {
			problems.addf("program %d has an empty code", i)
		}
		if program.Seats <= 0 {
			problems.addf("program %q must have a positive number of seats, got %d", program.Code, program.Seats)
		}
		if seen[program.Code] {
			problems.addf("program code %q is declared more than once", program.Code)
		}
		seen[program.Code] = true
	}
}

// Validate checks an uploaded record set before it is stored.
//
// On top of the program checks it rejects negative scores, priorities outside 1..4,
// unknown program codes, repeated (applicant, program) pairs, an applicant
// giving the same priority to two programs, and an applicant whose records
// carry different total scores.
// Every problem is reported in one *InvalidInputError.
func Validate(records []model.ApplicationRecord, programs []model.Program) error {
	var problems problemList
	checkPrograms(programs, &problems)

	known := make(map[string]bool, len(programs))
	for _, program := range programs {
		known[program.Code] = true
	}

	type applicantProgram struct {
		applicantID int64
		programCode string
	}
	type applicantPriority struct {
		applicantID int64
		priority    int
	}
	seenPrograms := make(map[applicantProgram]bool)
	seenPriorities := make(map[applicantPriority]string)
	firstRecord := make(map[int64]model.ApplicationRecord)

	for i, record := range records {
		where := fmt.Sprintf("record %d (applicant %d, program %q)", i, record.ApplicantID, record.ProgramCode)

		if !known[record.ProgramCode] {
			problems.addf("%s: unknown program", where)
		}
		if !record.HasValidPriority() {
			problems.addf("%s: priority %d outside %d..%d", where, record.Priority, model.MinPriority, model.MaxPriority)
		}
		if record.TotalScore < 0 {
			problems.addf("%s: negative total score %d", where, record.TotalScore)
		}
		if record.PhysicsScore < 0 || record.RussianScore < 0 || record.MathScore < 0 || record.AchievementScore < 0 {
			problems.addf("%s: negative component score", where)
		}

		if first, ok := firstRecord[record.ApplicantID]; !ok {
			firstRecord[record.ApplicantID] = record
		} else if first.TotalScore != record.TotalScore {
			problems.addf("%s: total score %d differs from %d given for program %q",
				where, record.TotalScore, first.TotalScore, first.ProgramCode)
		}

		key := applicantProgram{record.ApplicantID, record.ProgramCode}
		if seenPrograms[key] {
			problems.addf("%s: duplicate application", where)
			continue
		}
		seenPrograms[key] = true

		if record.HasValidPriority() {
			priorityKey := applicantPriority{record.ApplicantID, record.Priority}
			if other, taken := seenPriorities[priorityKey]; taken {
				problems.addf("%s: priority %d already given to program %q", where, record.Priority, other)
			} else {
				seenPriorities[priorityKey] = record.ProgramCode
			}
		}
	}

	return problems.err()
}

// ValidateOutcome checks the final state against the allocation invariants.
// Returns a slice of violations; an empty slice means the outcome is consistent.
func ValidateOutcome(outcome *AllocationOutcome) []OutcomeViolation {
	violations := []OutcomeViolation{}
	seenApplicants := make(map[int64]string)

	for _, code := range outcome.ProgramOrder {
		result := outcome.Results[code]

		if result.SeatsFilled > result.Seats {
			violations = append(violations, OutcomeViolation{
				ProgramCode: code,
				Description: fmt.Sprintf("%d seats filled but only %d available", result.SeatsFilled, result.Seats),
			})
		}

		if result.SeatsFilled != len(result.Admitted) {
			violations = append(violations, OutcomeViolation{
				ProgramCode: code,
				Description: fmt.Sprintf("seats filled (%d) does not match admitted list (%d)", result.SeatsFilled, len(result.Admitted)),
			})
		}

		if result.Shortage == result.IsFull() {
			violations = append(violations, OutcomeViolation{
				ProgramCode: code,
				Description: fmt.Sprintf("shortage flag %t inconsistent with %d/%d seats filled", result.Shortage, result.SeatsFilled, result.Seats),
			})
		}

		for _, admitted := range result.Admitted {
			if other, taken := seenApplicants[admitted.ApplicantID]; taken {
				violations = append(violations, OutcomeViolation{
					ProgramCode: code,
					Description: fmt.Sprintf("applicant %d already admitted to %q", admitted.ApplicantID, other),
				})
				continue
			}
			seenApplicants[admitted.ApplicantID] = code

			if !result.Shortage && admitted.TotalScore < result.PassingScore {
				violations = append(violations, OutcomeViolation{
					ProgramCode: code,
					Description: fmt.Sprintf("applicant %d admitted with %d below passing score %d", admitted.ApplicantID, admitted.TotalScore, result.PassingScore),
				})
			}
		}
	}

	return violations
}
