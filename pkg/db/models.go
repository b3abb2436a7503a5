package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/admissions/pkg/core/model"
)

// Upload statuses recorded in upload_history
const (
	UploadStatusSuccess = "success"
	UploadStatusFailed  = "failed"
)

// ApplicationRecord represents a database application_record row
type ApplicationRecord struct {
	ID               string
	ListDate         time.Time
	ApplicantID      int64
	ProgramCode      string
	Priority         int
	PhysicsScore     int
	RussianScore     int
	MathScore        int
	AchievementScore int
	TotalScore       int
	ConsentGiven     bool
	UpdatedAt        time.Time
}

// AdmissionResult represents a database admission_result row and its enrolled applicants
type AdmissionResult struct {
	ID              string
	ProgramCode     string
	CalculationDate time.Time
	// PassingScore is nil when the program is in shortage
	PassingScore *int
	SeatsFilled  int
	IsShortage   bool
	CalculatedAt time.Time
	Enrolled     []EnrolledApplicant
}

// EnrolledApplicant represents a database enrolled_applicant row
type EnrolledApplicant struct {
	ID                string
	AdmissionResultID string
	ApplicantID       int64
	Priority          int
	TotalScore        int
	EnrollmentOrder   int
}

// UploadHistory represents a database upload_history row
type UploadHistory struct {
	ID                string
	ListDate          time.Time
	RecordsTotal      int
	RecordsCreated    int
	RecordsUpdated    int
	RecordsDeleted    int
	Status            string
	ErrorMessage      string
	ProcessingSeconds float64
	UploadedAt        time.Time
}

// NewApplicationRecord builds a row for the given list date with a fresh id
func NewApplicationRecord(date time.Time, r model.ApplicationRecord) ApplicationRecord {
	return ApplicationRecord{
		ID:               uuid.NewString(),
		ListDate:         date,
		ApplicantID:      r.ApplicantID,
		ProgramCode:      r.ProgramCode,
		Priority:         r.Priority,
		PhysicsScore:     r.PhysicsScore,
		RussianScore:     r.RussianScore,
		MathScore:        r.MathScore,
		AchievementScore: r.AchievementScore,
		TotalScore:       r.TotalScore,
		ConsentGiven:     r.ConsentGiven,
	}
}

// ToModel converts the row into the allocation model
func (r ApplicationRecord) ToModel() model.ApplicationRecord {
	return model.ApplicationRecord{
		ApplicantID:      r.ApplicantID,
		ProgramCode:      r.ProgramCode,
		Priority:         r.Priority,
		TotalScore:       r.TotalScore,
		ConsentGiven:     r.ConsentGiven,
		PhysicsScore:     r.PhysicsScore,
		RussianScore:     r.RussianScore,
		MathScore:        r.MathScore,
		AchievementScore: r.AchievementScore,
	}
}

// ToModels converts a slice of rows into the allocation model
func ToModels(rows []ApplicationRecord) []model.ApplicationRecord {
	records := make([]model.ApplicationRecord, len(rows))
	for i, row := range rows {
		records[i] = row.ToModel()
	}
	return records
}

// sameContent reports whether the row already holds the values of r
func (r ApplicationRecord) sameContent(m model.ApplicationRecord) bool {
	return r.ToModel() == m
}
