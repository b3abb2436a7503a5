package allocator

import (
	"sort"

	"github.com/jakechorley/admissions/pkg/core/model"
)

// applyStatistics fills in the per-program counts from the full record set
func applyStatistics(outcome *AllocationOutcome, pool Pool) {
	for _, result := range outcome.Results {
		result.Stats = ProgramStatistics{
			AppliedByPriority:  newPriorityBreakdown(),
			AdmittedByPriority: newPriorityBreakdown(),
		}
	}

	for _, record := range pool.Records() {
		result, ok := outcome.Results[record.ProgramCode]
		if !ok {
			continue
		}

		result.Stats.Applications++
		if record.ConsentGiven {
			result.Stats.Consents++
		}
		if record.HasValidPriority() {
			result.Stats.AppliedByPriority[record.Priority]++
		}
	}

	for _, result := range outcome.Results {
		for _, admitted := range result.Admitted {
			if admitted.Priority >= model.MinPriority && admitted.Priority <= model.MaxPriority {
				result.Stats.AdmittedByPriority[admitted.Priority]++
			}
		}
	}
}

// sortedApplicantIDs returns the pool's applicant IDs in ascending order
func sortedApplicantIDs(pool Pool) []int64 {
	ids := make([]int64, 0, len(pool))
	for id := range pool {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
