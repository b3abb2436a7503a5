package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/admissions/pkg/core/allocator"
	"github.com/jakechorley/admissions/pkg/core/model"
	"github.com/jakechorley/admissions/pkg/db"
	"github.com/jakechorley/admissions/pkg/metrics"
)

// UploadSummary describes what a snapshot sync changed
type UploadSummary struct {
	Date      time.Time
	Total     int
	Created   int
	Updated   int
	Deleted   int
	Unchanged int
}

// SyncSnapshot replaces the stored application list of a date with an uploaded one.
// Every attempt, successful or not, is recorded in the upload history.
func SyncSnapshot(
	ctx context.Context,
	database db.SnapshotStore,
	logger *zap.Logger,
	programs []model.Program,
	date time.Time,
	records []model.ApplicationRecord,
) (*UploadSummary, error) {
	start := time.Now()
	logger.Debug("Starting syncSnapshot",
		zap.String("date", date.Format(DateLayout)),
		zap.Int("records", len(records)))

	summary := &UploadSummary{Date: date, Total: len(records)}

	fail := func(err error) (*UploadSummary, error) {
		history := &db.UploadHistory{
			ListDate:          date,
			RecordsTotal:      len(records),
			Status:            db.UploadStatusFailed,
			ErrorMessage:      err.Error(),
			ProcessingSeconds: time.Since(start).Seconds(),
		}
		if histErr := database.InsertUploadHistory(ctx, history); histErr != nil {
			logger.Error("Failed to record failed upload", zap.Error(histErr))
		}
		return nil, err
	}

	if err := allocator.Validate(records, programs); err != nil {
		return fail(fmt.Errorf("snapshot rejected: %w", err))
	}

	existing, err := database.GetRecordsByDate(ctx, date)
	if err != nil {
		return fail(fmt.Errorf("failed to fetch stored records: %w", err))
	}
	logger.Debug("Loaded stored records", zap.Int("stored", len(existing)))

	changes, err := db.DiffSnapshot(date, existing, records)
	if err != nil {
		return fail(fmt.Errorf("snapshot rejected: %w", err))
	}

	summary.Created = len(changes.Create)
	summary.Updated = len(changes.Update)
	summary.Deleted = len(changes.DeleteIDs)
	summary.Unchanged = changes.Unchanged

	if err := database.ApplySnapshot(ctx, date, changes); err != nil {
		return fail(fmt.Errorf("failed to apply snapshot: %w", err))
	}
	metrics.ObserveSnapshot(summary.Created, summary.Updated, summary.Deleted)

	history := &db.UploadHistory{
		ListDate:          date,
		RecordsTotal:      summary.Total,
		RecordsCreated:    summary.Created,
		RecordsUpdated:    summary.Updated,
		RecordsDeleted:    summary.Deleted,
		Status:            db.UploadStatusSuccess,
		ProcessingSeconds: time.Since(start).Seconds(),
	}
	if err := database.InsertUploadHistory(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to record upload history: %w", err)
	}

	logger.Info("Snapshot synced",
		zap.String("date", date.Format(DateLayout)),
		zap.Int("total", summary.Total),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("deleted", summary.Deleted),
		zap.Int("unchanged", summary.Unchanged))

	return summary, nil
}
