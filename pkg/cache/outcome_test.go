package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/admissions/pkg/core/allocator"
	"github.com/jakechorley/admissions/pkg/core/model"
)

func setupCache(t *testing.T, ttl time.Duration) (*OutcomeCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewWithClient(client, ttl)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func sampleInput() ([]model.ApplicationRecord, []model.Program) {
	records := []model.ApplicationRecord{
		{ApplicantID: 1, ProgramCode: "PM", Priority: 1, TotalScore: 90, ConsentGiven: true},
		{ApplicantID: 2, ProgramCode: "PM", Priority: 1, TotalScore: 85, ConsentGiven: true},
		{ApplicantID: 3, ProgramCode: "IB", Priority: 1, TotalScore: 80, ConsentGiven: true},
		{ApplicantID: 3, ProgramCode: "PM", Priority: 2, TotalScore: 80, ConsentGiven: true},
	}
	programs := []model.Program{
		{Code: "PM", Seats: 2},
		{Code: "IB", Seats: 2},
	}
	return records, programs
}

func sampleOutcome(t *testing.T) *allocator.AllocationOutcome {
	t.Helper()
	records, programs := sampleInput()
	outcome, err := allocator.Allocate(allocator.BuildPool(records), programs)
	require.NoError(t, err)
	return outcome
}

func TestOutcomeCache_MissThenHit(t *testing.T) {
	c, _ := setupCache(t, time.Hour)
	ctx := context.Background()

	got, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	outcome := sampleOutcome(t)
	require.NoError(t, c.Set(ctx, "key", outcome))

	got, ok, err = c.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, outcome, got)
}

func TestOutcomeCache_ExpiresAfterTTL(t *testing.T) {
	c, mr := setupCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", sampleOutcome(t)))
	assert.True(t, mr.Exists(keyPrefix+"key"))

	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOutcomeCache_CorruptPayload(t *testing.T) {
	c, mr := setupCache(t, time.Hour)

	require.NoError(t, mr.Set(keyPrefix+"key", "not json"))

	_, ok, err := c.Get(context.Background(), "key")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestOutcomeCache_ServerDown(t *testing.T) {
	c, mr := setupCache(t, time.Hour)
	mr.Close()

	_, _, err := c.Get(context.Background(), "key")
	assert.Error(t, err)
	assert.Error(t, c.Ping(context.Background()))
}

func TestFingerprint(t *testing.T) {
	records, programs := sampleInput()

	base, err := Fingerprint(records, programs)
	require.NoError(t, err)
	assert.Len(t, base, 64)

	tests := []struct {
		name     string
		records  []model.ApplicationRecord
		programs []model.Program
		same     bool
	}{
		{
			name:     "identical input",
			records:  records,
			programs: programs,
			same:     true,
		},
		{
			name:     "records reordered",
			records:  []model.ApplicationRecord{records[3], records[1], records[0], records[2]},
			programs: programs,
			same:     true,
		},
		{
			name: "score changed",
			records: []model.ApplicationRecord{
				records[0], records[1], records[2],
				{ApplicantID: 3, ProgramCode: "PM", Priority: 2, TotalScore: 81, ConsentGiven: true},
			},
			programs: programs,
			same:     false,
		},
		{
			name:     "consent withdrawn",
			records:  []model.ApplicationRecord{records[0], records[1], records[2], {ApplicantID: 3, ProgramCode: "PM", Priority: 2, TotalScore: 80}},
			programs: programs,
			same:     false,
		},
		{
			name:     "seats changed",
			records:  records,
			programs: []model.Program{{Code: "PM", Seats: 3}, {Code: "IB", Seats: 2}},
			same:     false,
		},
		{
			name:     "programs reordered",
			records:  records,
			programs: []model.Program{programs[1], programs[0]},
			same:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Fingerprint(tt.records, tt.programs)
			require.NoError(t, err)
			if tt.same {
				assert.Equal(t, base, key)
			} else {
				assert.NotEqual(t, base, key)
			}
		})
	}
}

func TestFingerprint_DoesNotReorderInput(t *testing.T) {
	records, programs := sampleInput()
	reversed := []model.ApplicationRecord{records[3], records[2], records[1], records[0]}
	before := append([]model.ApplicationRecord(nil), reversed...)

	_, err := Fingerprint(reversed, programs)
	require.NoError(t, err)

	assert.Equal(t, before, reversed)
}
