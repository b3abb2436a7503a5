package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/admissions/pkg/db"
)

// SaveResults replaces the stored admission results of a date. Each program's
// previous result and its enrolled applicants are removed before the new one is inserted.
func (d *DB) SaveResults(ctx context.Context, date time.Time, results []db.AdmissionResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, result := range results {
		if result.ID == "" {
			result.ID = uuid.NewString()
		}

		_, err := tx.Exec(ctx, `
			DELETE FROM admission_result WHERE program_code = $1 AND calculation_date = $2
		`, result.ProgramCode, date)
		if err != nil {
			return fmt.Errorf("failed to delete previous result for %s: %w", result.ProgramCode, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO admission_result (id, program_code, calculation_date, passing_score, seats_filled, is_shortage)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, result.ID, result.ProgramCode, date, result.PassingScore, result.SeatsFilled, result.IsShortage)
		if err != nil {
			return fmt.Errorf("failed to insert result for %s: %w", result.ProgramCode, err)
		}

		for _, e := range result.Enrolled {
			if e.ID == "" {
				e.ID = uuid.NewString()
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO enrolled_applicant (id, admission_result_id, applicant_id, priority, total_score, enrollment_order)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, e.ID, result.ID, e.ApplicantID, e.Priority, e.TotalScore, e.EnrollmentOrder)
			if err != nil {
				return fmt.Errorf("failed to insert enrolled applicant %d for %s: %w", e.ApplicantID, result.ProgramCode, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetResultsByDate retrieves the stored admission results of a date with their enrolled applicants
func (d *DB) GetResultsByDate(ctx context.Context, date time.Time) ([]db.AdmissionResult, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, program_code, calculation_date, passing_score, seats_filled, is_shortage, calculated_at
		FROM admission_result
		WHERE calculation_date = $1
		ORDER BY program_code
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query admission results: %w", err)
	}
	defer rows.Close()

	var results []db.AdmissionResult
	index := make(map[string]int)
	for rows.Next() {
		var r db.AdmissionResult
		if err := rows.Scan(&r.ID, &r.ProgramCode, &r.CalculationDate, &r.PassingScore, &r.SeatsFilled, &r.IsShortage, &r.CalculatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan admission result: %w", err)
		}
		index[r.ID] = len(results)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admission results: %w", err)
	}
	rows.Close()

	if len(results) == 0 {
		return results, nil
	}

	enrolledRows, err := d.pool.Query(ctx, `
		SELECT e.id, e.admission_result_id, e.applicant_id, e.priority, e.total_score, e.enrollment_order
		FROM enrolled_applicant e
		JOIN admission_result r ON r.id = e.admission_result_id
		WHERE r.calculation_date = $1
		ORDER BY e.admission_result_id, e.enrollment_order
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrolled applicants: %w", err)
	}
	defer enrolledRows.Close()

	for enrolledRows.Next() {
		var e db.EnrolledApplicant
		if err := enrolledRows.Scan(&e.ID, &e.AdmissionResultID, &e.ApplicantID, &e.Priority, &e.TotalScore, &e.EnrollmentOrder); err != nil {
			return nil, fmt.Errorf("failed to scan enrolled applicant: %w", err)
		}
		if i, ok := index[e.AdmissionResultID]; ok {
			results[i].Enrolled = append(results[i].Enrolled, e)
		}
	}
	if err := enrolledRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrolled applicants: %w", err)
	}

	return results, nil
}
