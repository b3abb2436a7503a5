package db

import (
	"context"
	"time"
)

// RecordStore defines the interface for reading application lists
type RecordStore interface {
	GetRecordsByDate(ctx context.Context, date time.Time) ([]ApplicationRecord, error)
	ListDates(ctx context.Context) ([]time.Time, error)
}

// SnapshotStore defines the interface for replacing the application list of a date
type SnapshotStore interface {
	RecordStore
	ApplySnapshot(ctx context.Context, date time.Time, changes SnapshotChanges) error
	InsertUploadHistory(ctx context.Context, history *UploadHistory) error
}

// ResultStore defines the interface for admission result database operations
type ResultStore interface {
	SaveResults(ctx context.Context, date time.Time, results []AdmissionResult) error
	GetResultsByDate(ctx context.Context, date time.Time) ([]AdmissionResult, error)
}

// Database defines the interface for all database operations.
// postgres.DB implements this interface.
type Database interface {
	SnapshotStore
	ResultStore
	GetUploadHistory(ctx context.Context, limit int) ([]UploadHistory, error)
}
