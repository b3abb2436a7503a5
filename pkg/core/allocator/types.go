package allocator

import "github.com/jakechorley/admissions/pkg/core/model"

// Pool maps an applicant ID to every application record that applicant holds on the list date
type Pool map[int64][]model.ApplicationRecord

// AdmittedApplicant is one entry of a program's admitted list
type AdmittedApplicant struct {
	ApplicantID int64 `json:"applicant_id"`
	TotalScore  int   `json:"total_score"`
	Priority    int   `json:"priority"`

	// Order is the 1-based position in which the applicant took the seat
	Order int `json:"order"`
}

// ProgramStatistics holds the auxiliary counts for one program.
// Counts are taken from the full record set, not only from consenting applicants.
type ProgramStatistics struct {
	Applications int `json:"applications"`
	Consents     int `json:"consents"`

	// AppliedByPriority and AdmittedByPriority always hold keys MinPriority..MaxPriority.
	// Records with a priority outside that range are not broken down.
	AppliedByPriority  map[int]int `json:"applied_by_priority"`
	AdmittedByPriority map[int]int `json:"admitted_by_priority"`
}

// ProgramResult is the allocation result for one program
type ProgramResult struct {
	ProgramCode string `json:"program_code"`
	Seats       int    `json:"seats"`
	SeatsFilled int    `json:"seats_filled"`

	// Shortage is set when fewer applicants were admitted than there are seats.
	// PassingScore is only meaningful when Shortage is false.
	Shortage     bool `json:"shortage"`
	PassingScore int  `json:"passing_score"`

	// HighestScore and LowestScore describe the admitted cohort (0 when nobody was admitted)
	HighestScore int `json:"highest_score"`
	LowestScore  int `json:"lowest_score"`

	// Admitted is ordered by admission order
	Admitted []AdmittedApplicant `json:"admitted"`

	Stats ProgramStatistics `json:"stats"`
}

// IsFull returns true if every seat has been taken
func (r *ProgramResult) IsFull() bool {
	return r.SeatsFilled >= r.Seats
}

// RemainingSeats returns the number of seats still free
func (r *ProgramResult) RemainingSeats() int {
	return max(r.Seats-r.SeatsFilled, 0)
}

// AllocationOutcome represents the result of one allocation run
type AllocationOutcome struct {
	// Results holds one entry per program, keyed by program code
	Results map[string]*ProgramResult `json:"results"`

	// ProgramOrder lists program codes in the order the programs were supplied
	ProgramOrder []string `json:"program_order"`

	// Unassigned lists consenting applicants that did not get a seat, in ranking order
	Unassigned []int64 `json:"unassigned"`

	// ValidationErrors contains invariant violations found in the final state (empty for a correct run)
	ValidationErrors []OutcomeViolation `json:"validation_errors"`
}

// OrderedResults returns the program results in ProgramOrder
func (o *AllocationOutcome) OrderedResults() []*ProgramResult {
	results := make([]*ProgramResult, 0, len(o.ProgramOrder))
	for _, code := range o.ProgramOrder {
		if result, ok := o.Results[code]; ok {
			results = append(results, result)
		}
	}
	return results
}

// AssignedProgram returns the program code the applicant was admitted to, if any
func (o *AllocationOutcome) AssignedProgram(applicantID int64) (string, bool) {
	for _, code := range o.ProgramOrder {
		for _, admitted := range o.Results[code].Admitted {
			if admitted.ApplicantID == applicantID {
				return code, true
			}
		}
	}
	return "", false
}

func newPriorityBreakdown() map[int]int {
	breakdown := make(map[int]int, model.MaxPriority)
	for p := model.MinPriority; p <= model.MaxPriority; p++ {
		breakdown[p] = 0
	}
	return breakdown
}
