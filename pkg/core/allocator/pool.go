package allocator

import "github.com/jakechorley/admissions/pkg/core/model"

// BuildPool groups the application records of one list date by applicant.
// Both consenting and non-consenting records are kept; the allocation filters by consent.
// The records are copied, so the caller's slice is never aliased.
func BuildPool(records []model.ApplicationRecord) Pool {
	pool := make(Pool)
	for _, record := range records {
		pool[record.ApplicantID] = append(pool[record.ApplicantID], record)
	}
	return pool
}

// Records returns every record in the pool
func (p Pool) Records() []model.ApplicationRecord {
	var records []model.ApplicationRecord
	for _, applicantRecords := range p {
		records = append(records, applicantRecords...)
	}
	return records
}

// ConsentingRecords returns the applicant's records with consent given
func (p Pool) ConsentingRecords(applicantID int64) []model.ApplicationRecord {
	var consenting []model.ApplicationRecord
	for _, record := range p[applicantID] {
		if record.ConsentGiven {
			consenting = append(consenting, record)
		}
	}
	return consenting
}
