package allocator

import "github.com/jakechorley/admissions/pkg/core/model"

// Allocator holds the state of a single allocation run
type Allocator struct {
	programs []model.Program

	// results share indices with programs
	results []*ProgramResult

	ranked     []*candidate
	unassigned []int64
}

// Allocate runs the single greedy assignment pass over the pool.
//
// Consenting applicants are taken in ranking order. Each one is admitted to the first program,
// in their own priority order, that still has a free seat, and to no other program.
// Applicants that find every program full stay unassigned.
//
// Returns an *InvalidInputError if a program has no seats, program codes repeat,
// a record references a program that is not in the list, or an applicant's
// consenting records disagree on the total score.
func Allocate(pool Pool, programs []model.Program) (*AllocationOutcome, error) {
	allocator, err := initAllocation(pool, programs)
	if err != nil {
		return nil, err
	}

	for _, c := range allocator.ranked {
		result, record := allocator.findFirstOpenProgram(c)
		if result == nil {
			allocator.unassigned = append(allocator.unassigned, c.applicantID)
			continue
		}

		allocator.admit(result, record)
	}

	return allocator.buildOutcome(pool), nil
}

// initAllocation validates the input and prepares an empty result per program
func initAllocation(pool Pool, programs []model.Program) (*Allocator, error) {
	var problems problemList
	checkPrograms(programs, &problems)

	programIndex := make(map[string]int, len(programs))
	for i, program := range programs {
		if _, seen := programIndex[program.Code]; !seen {
			programIndex[program.Code] = i
		}
	}

	for _, applicantID := range sortedApplicantIDs(pool) {
		for _, record := range pool[applicantID] {
			if _, known := programIndex[record.ProgramCode]; !known {
				problems.addf("applicant %d references unknown program %q", applicantID, record.ProgramCode)
			}
		}
		checkConsentingScores(applicantID, pool.ConsentingRecords(applicantID), &problems)
	}

	if err := problems.err(); err != nil {
		return nil, err
	}

	results := make([]*ProgramResult, len(programs))
	for i, program := range programs {
		results[i] = &ProgramResult{
			ProgramCode: program.Code,
			Seats:       program.Seats,
			Admitted:    []AdmittedApplicant{},
		}
	}

	return &Allocator{
		programs:   programs,
		results:    results,
		ranked:     rankCandidates(pool, programIndex),
		unassigned: []int64{},
	}, nil
}

// checkConsentingScores requires one total score across the applicant's consenting records
func checkConsentingScores(applicantID int64, consenting []model.ApplicationRecord, problems *problemList) {
	if len(consenting) == 0 {
		return
	}

	first := consenting[0]
	for _, record := range consenting[1:] {
		if record.TotalScore != first.TotalScore {
			problems.addf("applicant %d has total score %d for program %q but %d for program %q",
				applicantID, record.TotalScore, record.ProgramCode, first.TotalScore, first.ProgramCode)
			return
		}
	}
}

// findFirstOpenProgram returns the candidate's most preferred program with a free seat
func (a *Allocator) findFirstOpenProgram(c *candidate) (*ProgramResult, model.ApplicationRecord) {
	for _, ch := range c.choices {
		result := a.results[ch.programIndex]
		if !result.IsFull() {
			return result, ch.record
		}
	}
	return nil, model.ApplicationRecord{}
}

// admit gives the applicant a seat in the program
func (a *Allocator) admit(result *ProgramResult, record model.ApplicationRecord) {
	result.SeatsFilled++
	result.Admitted = append(result.Admitted, AdmittedApplicant{
		ApplicantID: record.ApplicantID,
		TotalScore:  record.TotalScore,
		Priority:    record.Priority,
		Order:       result.SeatsFilled,
	})
}

// buildOutcome derives scores and statistics and assembles the final report
func (a *Allocator) buildOutcome(pool Pool) *AllocationOutcome {
	outcome := &AllocationOutcome{
		Results:          make(map[string]*ProgramResult, len(a.results)),
		ProgramOrder:     model.ProgramCodes(a.programs),
		Unassigned:       a.unassigned,
		ValidationErrors: []OutcomeViolation{},
	}

	for _, result := range a.results {
		finaliseScores(result)
		outcome.Results[result.ProgramCode] = result
	}

	applyStatistics(outcome, pool)

	outcome.ValidationErrors = ValidateOutcome(outcome)

	return outcome
}

// finaliseScores sets the passing score or the shortage marker
func finaliseScores(result *ProgramResult) {
	result.Shortage = !result.IsFull()

	if len(result.Admitted) == 0 {
		return
	}

	result.HighestScore = result.Admitted[0].TotalScore
	result.LowestScore = result.Admitted[0].TotalScore
	for _, admitted := range result.Admitted[1:] {
		result.HighestScore = max(result.HighestScore, admitted.TotalScore)
		result.LowestScore = min(result.LowestScore, admitted.TotalScore)
	}

	if !result.Shortage {
		result.PassingScore = result.LowestScore
	}
}
