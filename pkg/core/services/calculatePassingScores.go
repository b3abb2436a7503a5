package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/admissions/pkg/cache"
	"github.com/jakechorley/admissions/pkg/core/allocator"
	"github.com/jakechorley/admissions/pkg/core/model"
	"github.com/jakechorley/admissions/pkg/db"
	"github.com/jakechorley/admissions/pkg/metrics"
)

// OutcomeCache defines the cache operations needed to reuse allocation outcomes.
// A nil OutcomeCache disables caching.
type OutcomeCache interface {
	Get(ctx context.Context, key string) (*allocator.AllocationOutcome, bool, error)
	Set(ctx context.Context, key string, outcome *allocator.AllocationOutcome) error
}

// RecordReader defines the database operation needed to load a date's application list
type RecordReader interface {
	GetRecordsByDate(ctx context.Context, date time.Time) ([]db.ApplicationRecord, error)
}

// PassingScoresStore defines the database operations needed by CalculatePassingScores
type PassingScoresStore interface {
	RecordReader
	SaveResults(ctx context.Context, date time.Time, results []db.AdmissionResult) error
}

// CalculatePassingScoresResult contains the outcome for one list date
type CalculatePassingScoresResult struct {
	Date        time.Time
	RecordCount int
	Outcome     *allocator.AllocationOutcome
	Cached      bool
	Saved       bool
}

// CalculatePassingScores allocates the application list of a date and optionally persists the results
func CalculatePassingScores(
	ctx context.Context,
	database PassingScoresStore,
	outcomeCache OutcomeCache,
	logger *zap.Logger,
	programs []model.Program,
	date time.Time,
	save bool,
) (*CalculatePassingScoresResult, error) {
	logger.Debug("Starting calculatePassingScores",
		zap.String("date", date.Format(DateLayout)),
		zap.Bool("save", save))

	result, err := evaluateDate(ctx, database, outcomeCache, logger, programs, date)
	if err != nil {
		return nil, err
	}
	metrics.ObserveOutcome(result.Outcome)

	if save {
		logger.Debug("Saving admission results", zap.Int("programs", len(result.Outcome.ProgramOrder)))
		if err := database.SaveResults(ctx, date, toAdmissionResults(date, result.Outcome)); err != nil {
			return nil, fmt.Errorf("failed to save admission results: %w", err)
		}
		result.Saved = true
	}

	for _, r := range result.Outcome.OrderedResults() {
		logger.Info("Program allocated",
			zap.String("date", date.Format(DateLayout)),
			zap.String("program", r.ProgramCode),
			zap.Int("seats_filled", r.SeatsFilled),
			zap.Int("seats", r.Seats),
			zap.Bool("shortage", r.Shortage),
			zap.Int("passing_score", r.PassingScore))
	}

	return result, nil
}

// evaluateDate loads, allocates and caches one list date.
// Callers set the per-program gauges.
func evaluateDate(
	ctx context.Context,
	database RecordReader,
	outcomeCache OutcomeCache,
	logger *zap.Logger,
	programs []model.Program,
	date time.Time,
) (*CalculatePassingScoresResult, error) {
	if err := allocator.ValidatePrograms(programs); err != nil {
		return nil, err
	}

	rows, err := database.GetRecordsByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch application records: %w", err)
	}
	records := db.ToModels(rows)

	logger.Debug("Loaded application records",
		zap.String("date", date.Format(DateLayout)),
		zap.Int("records", len(records)))
	if len(records) == 0 {
		logger.Warn("No application records for date", zap.String("date", date.Format(DateLayout)))
	}

	result := &CalculatePassingScoresResult{Date: date, RecordCount: len(records)}

	var key string
	if outcomeCache != nil {
		key, err = cache.Fingerprint(records, programs)
		if err != nil {
			return nil, err
		}

		cached, ok, err := outcomeCache.Get(ctx, key)
		if err != nil {
			logger.Warn("Outcome cache read failed", zap.Error(err))
		} else if ok {
			logger.Debug("Outcome cache hit", zap.String("key", key))
			metrics.ObserveRun(metrics.SourceCached, 0)
			result.Outcome = cached
			result.Cached = true
			return result, nil
		}
	}

	start := time.Now()
	outcome, err := allocator.Allocate(allocator.BuildPool(records), programs)
	if err != nil {
		metrics.ObserveRun(metrics.SourceFailed, 0)
		return nil, fmt.Errorf("failed to allocate %s: %w", date.Format(DateLayout), err)
	}
	metrics.ObserveRun(metrics.SourceComputed, time.Since(start))

	if len(outcome.ValidationErrors) > 0 {
		for _, v := range outcome.ValidationErrors {
			logger.Error("Allocation invariant violated",
				zap.String("program", v.ProgramCode),
				zap.String("description", v.Description))
		}
		return nil, fmt.Errorf("allocation for %s produced %d invariant violations", date.Format(DateLayout), len(outcome.ValidationErrors))
	}

	logger.Debug("Allocation complete",
		zap.Int("unassigned", len(outcome.Unassigned)),
		zap.Duration("elapsed", time.Since(start)))

	if outcomeCache != nil {
		if err := outcomeCache.Set(ctx, key, outcome); err != nil {
			logger.Warn("Outcome cache write failed", zap.Error(err))
		}
	}

	result.Outcome = outcome
	return result, nil
}
