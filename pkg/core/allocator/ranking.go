package allocator

import (
	"sort"

	"github.com/jakechorley/admissions/pkg/core/model"
)

// choice is one consenting application of a candidate, resolved to its program slot
type choice struct {
	record       model.ApplicationRecord
	programIndex int
}

// candidate is a consenting applicant waiting for a seat
type candidate struct {
	applicantID int64

	// score is the total score shared by the applicant's consenting records
	score int

	// bestPriority is the most preferred consenting priority (out-of-range values rank last)
	bestPriority int

	// choices are ordered by the applicant's own priority, most preferred first
	choices []choice
}

// rankPriority maps a declared priority to its sort key.
// Priorities outside MinPriority..MaxPriority are treated as the lowest preference.
func rankPriority(priority int) int {
	if priority < model.MinPriority || priority > model.MaxPriority {
		return model.MaxPriority + 1
	}
	return priority
}

// buildCandidate turns the applicant's consenting records into ranked choices.
// Returns nil if the applicant has not given consent anywhere.
func buildCandidate(applicantID int64, consenting []model.ApplicationRecord, programIndex map[string]int) *candidate {
	c := &candidate{applicantID: applicantID}

	for _, record := range consenting {
		idx, known := programIndex[record.ProgramCode]
		if !known {
			continue
		}

		c.score = record.TotalScore
		if len(c.choices) == 0 || rankPriority(record.Priority) < c.bestPriority {
			c.bestPriority = rankPriority(record.Priority)
		}

		c.choices = append(c.choices, choice{record: record, programIndex: idx})
	}

	if len(c.choices) == 0 {
		return nil
	}

	// Most preferred program first; equal priorities fall back to program order
	sort.Slice(c.choices, func(i, j int) bool {
		pi := rankPriority(c.choices[i].record.Priority)
		pj := rankPriority(c.choices[j].record.Priority)
		if pi != pj {
			return pi < pj
		}
		return c.choices[i].programIndex < c.choices[j].programIndex
	})

	return c
}

// rankCandidates builds the global ranking of consenting applicants.
// Order: score descending, then best priority ascending, then applicant ID ascending.
func rankCandidates(pool Pool, programIndex map[string]int) []*candidate {
	candidates := make([]*candidate, 0, len(pool))
	for applicantID := range pool {
		if c := buildCandidate(applicantID, pool.ConsentingRecords(applicantID), programIndex); c != nil {
			candidates = append(candidates, c)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return ranksBefore(candidates[i], candidates[j])
	})

	return candidates
}

// ranksBefore reports whether a is evaluated before b
func ranksBefore(a, b *candidate) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.bestPriority != b.bestPriority {
		return a.bestPriority < b.bestPriority
	}
	return a.applicantID < b.applicantID
}
