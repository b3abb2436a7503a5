package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jakechorley/admissions/pkg/core/allocator"
)

// Allocation run sources
const (
	SourceComputed = "computed"
	SourceCached   = "cached"
	SourceFailed   = "failed"
)

var (
	AllocationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_allocation_runs_total",
			Help: "Total number of allocation runs by source",
		},
		[]string{"source"},
	)

	AllocationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "admissions_allocation_duration_seconds",
			Help:    "Duration of allocation runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)

	ProgramSeatsFilled = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admissions_program_seats_filled",
			Help: "Seats filled per program in the latest allocation",
		},
		[]string{"program"},
	)

	ProgramShortage = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admissions_program_shortage",
			Help: "1 if the program was under-filled in the latest allocation",
		},
		[]string{"program"},
	)

	ProgramPassingScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "admissions_program_passing_score",
			Help: "Passing score per program in the latest allocation (absent during shortage)",
		},
		[]string{"program"},
	)

	SnapshotRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_snapshot_records_total",
			Help: "Application records changed by snapshot syncs",
		},
		[]string{"change"},
	)
)

// ObserveRun records one allocation run
func ObserveRun(source string, elapsed time.Duration) {
	AllocationRuns.WithLabelValues(source).Inc()
	if source == SourceComputed {
		AllocationDuration.Observe(elapsed.Seconds())
	}
}

// ObserveOutcome sets the per-program gauges from an allocation outcome
func ObserveOutcome(outcome *allocator.AllocationOutcome) {
	for _, result := range outcome.OrderedResults() {
		ProgramSeatsFilled.WithLabelValues(result.ProgramCode).Set(float64(result.SeatsFilled))
		if result.Shortage {
			ProgramShortage.WithLabelValues(result.ProgramCode).Set(1)
			ProgramPassingScore.DeleteLabelValues(result.ProgramCode)
			continue
		}
		ProgramShortage.WithLabelValues(result.ProgramCode).Set(0)
		ProgramPassingScore.WithLabelValues(result.ProgramCode).Set(float64(result.PassingScore))
	}
}

// ObserveSnapshot adds the changes of one snapshot sync
func ObserveSnapshot(created, updated, deleted int) {
	SnapshotRecords.WithLabelValues("created").Add(float64(created))
	SnapshotRecords.WithLabelValues("updated").Add(float64(updated))
	SnapshotRecords.WithLabelValues("deleted").Add(float64(deleted))
}

// WriteTextfile writes the default registry to path in the node_exporter textfile format
func WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
	}

	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}

	return nil
}
