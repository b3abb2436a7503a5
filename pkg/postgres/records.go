package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/admissions/pkg/db"
)

// GetRecordsByDate retrieves the application list of a date ordered by applicant and program
func (d *DB) GetRecordsByDate(ctx context.Context, date time.Time) ([]db.ApplicationRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, list_date, applicant_id, program_code, priority,
		       physics_score, russian_score, math_score, achievement_score,
		       total_score, consent_given, updated_at
		FROM application_record
		WHERE list_date = $1
		ORDER BY applicant_id, program_code
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query application records: %w", err)
	}
	defer rows.Close()

	var records []db.ApplicationRecord
	for rows.Next() {
		var r db.ApplicationRecord
		if err := rows.Scan(
			&r.ID, &r.ListDate, &r.ApplicantID, &r.ProgramCode, &r.Priority,
			&r.PhysicsScore, &r.RussianScore, &r.MathScore, &r.AchievementScore,
			&r.TotalScore, &r.ConsentGiven, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan application record: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating application records: %w", err)
	}

	return records, nil
}

// ListDates returns every list date that has stored records, oldest first
func (d *DB) ListDates(ctx context.Context) ([]time.Time, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT DISTINCT list_date FROM application_record ORDER BY list_date
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query list dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("failed to scan list date: %w", err)
		}
		dates = append(dates, date)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating list dates: %w", err)
	}

	return dates, nil
}

// ApplySnapshot applies the given changes to the list of a date in a single transaction
func (d *DB) ApplySnapshot(ctx context.Context, date time.Time, changes db.SnapshotChanges) error {
	if changes.IsEmpty() {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if len(changes.DeleteIDs) > 0 {
		_, err := tx.Exec(ctx, `
			DELETE FROM application_record WHERE list_date = $1 AND id = ANY($2)
		`, date, changes.DeleteIDs)
		if err != nil {
			return fmt.Errorf("failed to delete application records: %w", err)
		}
	}

	for _, r := range changes.Update {
		_, err := tx.Exec(ctx, `
			UPDATE application_record
			SET priority = $2, physics_score = $3, russian_score = $4, math_score = $5,
			    achievement_score = $6, total_score = $7, consent_given = $8, updated_at = NOW()
			WHERE id = $1
		`, r.ID, r.Priority, r.PhysicsScore, r.RussianScore, r.MathScore,
			r.AchievementScore, r.TotalScore, r.ConsentGiven)
		if err != nil {
			return fmt.Errorf("failed to update application record %s: %w", r.ID, err)
		}
	}

	for _, r := range changes.Create {
		_, err := tx.Exec(ctx, `
			INSERT INTO application_record (
				id, list_date, applicant_id, program_code, priority,
				physics_score, russian_score, math_score, achievement_score,
				total_score, consent_given
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, r.ID, date, r.ApplicantID, r.ProgramCode, r.Priority,
			r.PhysicsScore, r.RussianScore, r.MathScore, r.AchievementScore,
			r.TotalScore, r.ConsentGiven)
		if err != nil {
			return fmt.Errorf("failed to insert application record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
