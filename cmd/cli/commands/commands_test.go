package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/admissions/internal/config"
	"github.com/jakechorley/admissions/pkg/core/allocator"
	"github.com/jakechorley/admissions/pkg/db"
)

var firstDay = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

// fakeDatabase implements db.Database in memory
type fakeDatabase struct {
	records  map[string][]db.ApplicationRecord
	saved    map[string][]db.AdmissionResult
	uploads  []db.UploadHistory
	dates    []time.Time
	listErr  error
	migrated []string
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{
		records: make(map[string][]db.ApplicationRecord),
		saved:   make(map[string][]db.AdmissionResult),
	}
}

func (f *fakeDatabase) GetRecordsByDate(ctx context.Context, date time.Time) ([]db.ApplicationRecord, error) {
	return f.records[date.Format("2006-01-02")], nil
}

func (f *fakeDatabase) ListDates(ctx context.Context) ([]time.Time, error) {
	return f.dates, f.listErr
}

func (f *fakeDatabase) ApplySnapshot(ctx context.Context, date time.Time, changes db.SnapshotChanges) error {
	key := date.Format("2006-01-02")
	kept := make([]db.ApplicationRecord, 0)
	deleted := make(map[string]bool)
	for _, id := range changes.DeleteIDs {
		deleted[id] = true
	}
	updated := make(map[string]db.ApplicationRecord)
	for _, r := range changes.Update {
		updated[r.ID] = r
	}
	for _, r := range f.records[key] {
		if deleted[r.ID] {
			continue
		}
		if u, ok := updated[r.ID]; ok {
			r = u
		}
		kept = append(kept, r)
	}
	f.records[key] = append(kept, changes.Create...)
	return nil
}

func (f *fakeDatabase) InsertUploadHistory(ctx context.Context, history *db.UploadHistory) error {
	f.uploads = append(f.uploads, *history)
	return nil
}

func (f *fakeDatabase) SaveResults(ctx context.Context, date time.Time, results []db.AdmissionResult) error {
	f.saved[date.Format("2006-01-02")] = results
	return nil
}

func (f *fakeDatabase) GetResultsByDate(ctx context.Context, date time.Time) ([]db.AdmissionResult, error) {
	return f.saved[date.Format("2006-01-02")], nil
}

func (f *fakeDatabase) GetUploadHistory(ctx context.Context, limit int) ([]db.UploadHistory, error) {
	if len(f.uploads) > limit {
		return f.uploads[:limit], nil
	}
	return f.uploads, nil
}

func (f *fakeDatabase) RunMigrations(ctx context.Context) ([]string, error) {
	return f.migrated, nil
}

func testApp(database *fakeDatabase) *AppContext {
	return &AppContext{
		Cfg: &config.Config{
			Programs: []config.Program{
				{Code: "PM", Name: "Applied Mathematics", Seats: 1},
				{Code: "IB", Name: "Information Security", Seats: 2},
			},
			DatabaseURL:      "postgres://unused",
			MaxParallelDates: 2,
		},
		Database: database,
		Migrator: database,
		Logger:   zap.NewNop(),
		Ctx:      context.Background(),
	}
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const snapshotYAML = `
records:
  - applicantId: 1
    program: PM
    priority: 1
    physics: 80
    russian: 85
    math: 90
    achievements: 5
    consent: true
  - applicantId: 2
    program: PM
    priority: 1
    total: 200
    consent: true
  - applicantId: 2
    program: IB
    priority: 2
    total: 200
    consent: true
  - applicantId: 3
    program: IB
    priority: 1
    total: 150
`

func TestParseSnapshot(t *testing.T) {
	records, err := parseSnapshot([]byte(snapshotYAML))
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, int64(1), records[0].ApplicantID)
	assert.Equal(t, 260, records[0].TotalScore, "total defaults to the component sum")
	assert.Equal(t, 90, records[0].MathScore)
	assert.True(t, records[0].ConsentGiven)

	assert.Equal(t, 200, records[1].TotalScore)
	assert.Equal(t, "IB", records[2].ProgramCode)
	assert.Equal(t, 2, records[2].Priority)
	assert.False(t, records[3].ConsentGiven)
}

func TestParseSnapshot_JSON(t *testing.T) {
	data := `{"records": [{"applicantId": 7, "program": "PM", "priority": 1, "total": 210, "consent": true}]}`

	records, err := parseSnapshot([]byte(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(7), records[0].ApplicantID)
	assert.Equal(t, 210, records[0].TotalScore)
}

func TestParseSnapshot_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		contains string
	}{
		{"malformed", "records: [", "failed to parse snapshot file"},
		{"missing applicant", "records:\n  - program: PM\n    priority: 1\n", "no applicantId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSnapshot([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParseConsentFlag(t *testing.T) {
	tests := []struct {
		value   string
		want    *bool
		wantErr bool
	}{
		{value: "any"},
		{value: ""},
		{value: "yes", want: boolPtr(true)},
		{value: "true", want: boolPtr(true)},
		{value: "no", want: boolPtr(false)},
		{value: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseConsentFlag(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func boolPtr(b bool) *bool {
	return &b
}

func TestSyncThenPassingScores(t *testing.T) {
	database := newFakeDatabase()
	app := testApp(database)

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(snapshotYAML), 0644))

	out, err := runCommand(t, SyncSnapshotCmd(app), "2025-08-01", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created:   4")
	require.Len(t, database.uploads, 1)
	assert.Equal(t, db.UploadStatusSuccess, database.uploads[0].Status)

	out, err = runCommand(t, PassingScoresCmd(app), "01.08.2025", "--save")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied Mathematics")
	assert.Contains(t, out, "260")
	assert.Contains(t, out, shortageLabel, "IB has two seats and one taker")
	assert.Contains(t, out, "Results saved")
	require.Len(t, database.saved["2025-08-01"], 2)

	var ibRow []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "IB ") {
			ibRow = strings.Fields(line)
		}
	}
	require.GreaterOrEqual(t, len(ibRow), 6)
	assert.Equal(t, []string{"2", "1", "1"}, ibRow[3:6], "seats, filled and free seats for IB")

	out, err = runCommand(t, SavedResultsCmd(app), "2025-08-01")
	require.NoError(t, err)
	assert.Contains(t, out, "PM")

	out, err = runCommand(t, AdmittedCmd(app), "2025-08-01", "IB")
	require.NoError(t, err)
	assert.Contains(t, out, "Admitted to IB: 1 of 2 seats")

	_, err = runCommand(t, AdmittedCmd(app), "2025-08-01", "ZZ")
	assert.Error(t, err)
}

func TestPassingScoresCmd_JSON(t *testing.T) {
	database := newFakeDatabase()
	database.records["2025-08-01"] = []db.ApplicationRecord{
		{ID: "a", ApplicantID: 1, ProgramCode: "PM", Priority: 1, TotalScore: 250, ConsentGiven: true},
	}
	app := testApp(database)

	out, err := runCommand(t, PassingScoresCmd(app), "2025-08-01", "--json")
	require.NoError(t, err)

	var outcome allocator.AllocationOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcome))
	assert.Equal(t, 250, outcome.Results["PM"].PassingScore)
	assert.True(t, outcome.Results["IB"].Shortage)
	assert.Empty(t, database.saved)
}

func TestSyncSnapshotCmd_Rejected(t *testing.T) {
	database := newFakeDatabase()
	app := testApp(database)

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("records:\n  - applicantId: 1\n    program: ZZ\n    priority: 1\n    total: 100\n"), 0644))

	_, err := runCommand(t, SyncSnapshotCmd(app), "2025-08-01", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, allocator.ErrInvalidInput))
	require.Len(t, database.uploads, 1)
	assert.Equal(t, db.UploadStatusFailed, database.uploads[0].Status)
}

func TestApplicationsCmd(t *testing.T) {
	database := newFakeDatabase()
	database.records["2025-08-01"] = []db.ApplicationRecord{
		{ID: "a", ApplicantID: 1, ProgramCode: "PM", Priority: 1, TotalScore: 250, ConsentGiven: true},
		{ID: "b", ApplicantID: 2, ProgramCode: "IB", Priority: 1, TotalScore: 240},
	}
	app := testApp(database)

	out, err := runCommand(t, ApplicationsCmd(app), "2025-08-01", "--consent", "no")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 applications")
	assert.Contains(t, out, "240")

	_, err = runCommand(t, ApplicationsCmd(app), "2025-08-01", "--priority", "9")
	assert.Error(t, err)
}

func TestStatisticsCmd(t *testing.T) {
	database := newFakeDatabase()
	database.records["2025-08-01"] = []db.ApplicationRecord{
		{ID: "a", ApplicantID: 1, ProgramCode: "PM", Priority: 1, TotalScore: 250, ConsentGiven: true},
		{ID: "b", ApplicantID: 2, ProgramCode: "PM", Priority: 2, TotalScore: 240},
	}
	app := testApp(database)

	out, err := runCommand(t, StatisticsCmd(app), "2025-08-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Statistics for 2025-08-01")
	assert.Contains(t, out, "1/1")
	assert.Contains(t, out, "1/0")
}

func TestResolveDynamicsDates(t *testing.T) {
	ctx := context.Background()
	database := newFakeDatabase()
	database.dates = []time.Time{firstDay}
	cfg := &config.Config{}

	t.Run("explicit range", func(t *testing.T) {
		dates, err := resolveDynamicsDates(ctx, "2025-08-01", "2025-08-04", cfg, database)
		require.NoError(t, err)
		assert.Len(t, dates, 4)
	})

	t.Run("half a range", func(t *testing.T) {
		_, err := resolveDynamicsDates(ctx, "2025-08-01", "", cfg, database)
		assert.Error(t, err)
	})

	t.Run("configured schedule", func(t *testing.T) {
		scheduled := &config.Config{SnapshotSchedule: "DTSTART:20250801T000000Z\nRRULE:FREQ=DAILY;COUNT=3"}
		dates, err := resolveDynamicsDates(ctx, "", "", scheduled, database)
		require.NoError(t, err)
		assert.Len(t, dates, 3)
		assert.Equal(t, firstDay, dates[0])
	})

	t.Run("stored dates", func(t *testing.T) {
		dates, err := resolveDynamicsDates(ctx, "", "", cfg, database)
		require.NoError(t, err)
		assert.Equal(t, []time.Time{firstDay}, dates)
	})

	t.Run("nothing stored", func(t *testing.T) {
		_, err := resolveDynamicsDates(ctx, "", "", cfg, newFakeDatabase())
		assert.Error(t, err)
	})
}

func TestDynamicsCmd(t *testing.T) {
	database := newFakeDatabase()
	database.records["2025-08-01"] = []db.ApplicationRecord{
		{ID: "a", ApplicantID: 1, ProgramCode: "PM", Priority: 1, TotalScore: 250, ConsentGiven: true},
	}
	database.records["2025-08-02"] = []db.ApplicationRecord{
		{ID: "a", ApplicantID: 1, ProgramCode: "PM", Priority: 1, TotalScore: 250, ConsentGiven: true},
		{ID: "b", ApplicantID: 2, ProgramCode: "PM", Priority: 1, TotalScore: 262, ConsentGiven: true},
	}
	app := testApp(database)

	out, err := runCommand(t, DynamicsCmd(app), "--from", "2025-08-01", "--to", "2025-08-02")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-08-02")
	assert.Contains(t, out, "250")
	assert.Contains(t, out, "262")
}

func TestMigrateCmd(t *testing.T) {
	database := newFakeDatabase()
	app := testApp(database)

	out, err := runCommand(t, MigrateCmd(app))
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	database.migrated = []string{"001_create_admissions_schema.sql"}
	out, err = runCommand(t, MigrateCmd(app))
	require.NoError(t, err)
	assert.Contains(t, out, "001_create_admissions_schema.sql")
}

func TestRunInteractive(t *testing.T) {
	database := newFakeDatabase()
	database.uploads = []db.UploadHistory{{ListDate: firstDay, Status: db.UploadStatusSuccess, RecordsTotal: 3}}
	app := testApp(database)

	uploads := UploadsCmd(app)
	var cmdOut bytes.Buffer
	uploads.SetOut(&cmdOut)

	commands := map[string]*cobra.Command{"uploads": uploads}
	in := strings.NewReader("help\nunknown\nuploads --limit 5\nexit\nuploads\n")
	var out bytes.Buffer

	err := runInteractive(in, &out, commands)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Available commands")
	assert.Contains(t, out.String(), "Unknown command: unknown")
	assert.Contains(t, out.String(), "Goodbye!")
	assert.Equal(t, 1, strings.Count(cmdOut.String(), "Last 1 uploads"), "commands after exit are not run")
}
