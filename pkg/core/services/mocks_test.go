package services

import (
	"context"
	"sync"
	"time"

	"github.com/jakechorley/admissions/pkg/core/allocator"
	"github.com/jakechorley/admissions/pkg/db"
)

// mockStore implements db.SnapshotStore and PassingScoresStore
type mockStore struct {
	mu sync.Mutex

	records map[string][]db.ApplicationRecord
	saved   map[string][]db.AdmissionResult
	uploads []db.UploadHistory
	applied []db.SnapshotChanges

	getRecordsErr    error
	failOnDate       string
	slowDate         string
	saveResultsErr   error
	applySnapshotErr error
	insertUploadErr  error
}

func newMockStore() *mockStore {
	return &mockStore{
		records: make(map[string][]db.ApplicationRecord),
		saved:   make(map[string][]db.AdmissionResult),
	}
}

func (m *mockStore) GetRecordsByDate(ctx context.Context, date time.Time) ([]db.ApplicationRecord, error) {
	if m.getRecordsErr != nil {
		return nil, m.getRecordsErr
	}
	key := date.Format(DateLayout)
	if key == m.failOnDate {
		return nil, errTestStore
	}
	if key == m.slowDate {
		time.Sleep(50 * time.Millisecond)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]db.ApplicationRecord(nil), m.records[key]...), nil
}

func (m *mockStore) ListDates(ctx context.Context) ([]time.Time, error) {
	return nil, nil
}

func (m *mockStore) ApplySnapshot(ctx context.Context, date time.Time, changes db.SnapshotChanges) error {
	if m.applySnapshotErr != nil {
		return m.applySnapshotErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied = append(m.applied, changes)
	return nil
}

func (m *mockStore) InsertUploadHistory(ctx context.Context, history *db.UploadHistory) error {
	if m.insertUploadErr != nil {
		return m.insertUploadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, *history)
	return nil
}

func (m *mockStore) SaveResults(ctx context.Context, date time.Time, results []db.AdmissionResult) error {
	if m.saveResultsErr != nil {
		return m.saveResultsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[date.Format(DateLayout)] = results
	return nil
}

// mockCache implements OutcomeCache
type mockCache struct {
	mu      sync.Mutex
	entries map[string]*allocator.AllocationOutcome
	gets    int
	sets    int
	getErr  error
	setErr  error
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]*allocator.AllocationOutcome)}
}

func (m *mockCache) Get(ctx context.Context, key string) (*allocator.AllocationOutcome, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	outcome, ok := m.entries[key]
	return outcome, ok, nil
}

func (m *mockCache) Set(ctx context.Context, key string, outcome *allocator.AllocationOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = outcome
	return nil
}
