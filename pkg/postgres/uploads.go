package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jakechorley/admissions/pkg/db"
)

// InsertUploadHistory records the outcome of a snapshot upload
func (d *DB) InsertUploadHistory(ctx context.Context, history *db.UploadHistory) error {
	if history.ID == "" {
		history.ID = uuid.NewString()
	}

	var errorMessage *string
	if history.ErrorMessage != "" {
		errorMessage = &history.ErrorMessage
	}

	_, err := d.pool.Exec(ctx, `
		INSERT INTO upload_history (
			id, list_date, records_total, records_created, records_updated, records_deleted,
			status, error_message, processing_seconds
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, history.ID, history.ListDate, history.RecordsTotal, history.RecordsCreated,
		history.RecordsUpdated, history.RecordsDeleted, history.Status, errorMessage,
		history.ProcessingSeconds)
	if err != nil {
		return fmt.Errorf("failed to insert upload history: %w", err)
	}

	return nil
}

// GetUploadHistory retrieves the most recent uploads, newest first
func (d *DB) GetUploadHistory(ctx context.Context, limit int) ([]db.UploadHistory, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, list_date, records_total, records_created, records_updated, records_deleted,
		       status, error_message, processing_seconds, uploaded_at
		FROM upload_history
		ORDER BY uploaded_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upload history: %w", err)
	}
	defer rows.Close()

	var history []db.UploadHistory
	for rows.Next() {
		var h db.UploadHistory
		var errorMessage *string
		if err := rows.Scan(
			&h.ID, &h.ListDate, &h.RecordsTotal, &h.RecordsCreated, &h.RecordsUpdated,
			&h.RecordsDeleted, &h.Status, &errorMessage, &h.ProcessingSeconds, &h.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan upload history: %w", err)
		}
		if errorMessage != nil {
			h.ErrorMessage = *errorMessage
		}
		history = append(history, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating upload history: %w", err)
	}

	return history, nil
}
