package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/admissions/pkg/core/allocator"
	"github.com/jakechorley/admissions/pkg/core/model"
	"github.com/jakechorley/admissions/pkg/metrics"
)

// DynamicsEntry is the allocation of one list date within a dynamics report
type DynamicsEntry struct {
	Date        time.Time
	RecordCount int
	Cached      bool
	Outcome     *allocator.AllocationOutcome
}

// DynamicsReport holds passing scores per program across a series of list dates
type DynamicsReport struct {
	ProgramOrder []string
	// Entries are in the order the dates were given
	Entries []DynamicsEntry
}

// PassingScore returns the passing score of program on the i-th entry.
// The boolean is false when the program was in shortage on that date.
func (r *DynamicsReport) PassingScore(program string, i int) (int, bool) {
	result, ok := r.Entries[i].Outcome.Results[program]
	if !ok || result.Shortage {
		return 0, false
	}
	return result.PassingScore, true
}

// ViewDynamics evaluates every date independently, at most parallelism at a time
func ViewDynamics(
	ctx context.Context,
	database RecordReader,
	outcomeCache OutcomeCache,
	logger *zap.Logger,
	programs []model.Program,
	dates []time.Time,
	parallelism int,
) (*DynamicsReport, error) {
	logger.Debug("Starting viewDynamics",
		zap.Int("dates", len(dates)),
		zap.Int("parallelism", parallelism))

	if len(dates) == 0 {
		return nil, fmt.Errorf("no dates to evaluate")
	}
	if parallelism < 1 {
		parallelism = 1
	}

	entries := make([]DynamicsEntry, len(dates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, date := range dates {
		g.Go(func() error {
			result, err := evaluateDate(gctx, database, outcomeCache, logger, programs, date)
			if err != nil {
				return fmt.Errorf("failed to evaluate %s: %w", date.Format(DateLayout), err)
			}
			entries[i] = DynamicsEntry{
				Date:        date,
				RecordCount: result.RecordCount,
				Cached:      result.Cached,
				Outcome:     result.Outcome,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	metrics.ObserveOutcome(latestEntry(entries).Outcome)

	logger.Info("Dynamics report built",
		zap.String("from", dates[0].Format(DateLayout)),
		zap.String("to", dates[len(dates)-1].Format(DateLayout)),
		zap.Int("dates", len(dates)))

	return &DynamicsReport{
		ProgramOrder: model.ProgramCodes(programs),
		Entries:      entries,
	}, nil
}

// latestEntry returns the entry with the most recent list date
func latestEntry(entries []DynamicsEntry) DynamicsEntry {
	latest := entries[0]
	for _, entry := range entries[1:] {
		if entry.Date.After(latest.Date) {
			latest = entry
		}
	}
	return latest
}
