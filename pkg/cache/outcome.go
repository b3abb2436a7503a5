package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/jakechorley/admissions/pkg/core/allocator"
	"github.com/jakechorley/admissions/pkg/core/model"
)

const keyPrefix = "admissions:outcome:"

// OutcomeCache stores allocation outcomes in Redis keyed by an input fingerprint
type OutcomeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a cache backed by a Redis server at addr
func New(addr string, ttl time.Duration) *OutcomeCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return NewWithClient(rdb, ttl)
}

// NewWithClient creates a cache around an existing client
func NewWithClient(client *redis.Client, ttl time.Duration) *OutcomeCache {
	return &OutcomeCache{client: client, ttl: ttl}
}

// Ping tests the Redis connection
func (c *OutcomeCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *OutcomeCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Get returns the cached outcome for key. The boolean is false on a miss.
func (c *OutcomeCache) Get(ctx context.Context, key string) (*allocator.AllocationOutcome, bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached outcome: %w", err)
	}

	var outcome allocator.AllocationOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached outcome: %w", err)
	}

	return &outcome, true, nil
}

// Set stores the outcome under key for the cache TTL
func (c *OutcomeCache) Set(ctx context.Context, key string, outcome *allocator.AllocationOutcome) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cached outcome: %w", err)
	}

	return nil
}

type fingerprintInput struct {
	Programs []model.Program           `json:"programs"`
	Records  []model.ApplicationRecord `json:"records"`
}

// Fingerprint returns a stable key for an allocation input.
// Record order does not affect the key; program order does.
func Fingerprint(records []model.ApplicationRecord, programs []model.Program) (string, error) {
	sorted := make([]model.ApplicationRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ApplicantID != b.ApplicantID {
			return a.ApplicantID < b.ApplicantID
		}
		if a.ProgramCode != b.ProgramCode {
			return a.ProgramCode < b.ProgramCode
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.TotalScore != b.TotalScore {
			return a.TotalScore < b.TotalScore
		}
		return !a.ConsentGiven && b.ConsentGiven
	})

	data, err := json.Marshal(fingerprintInput{Programs: programs, Records: sorted})
	if err != nil {
		return "", fmt.Errorf("failed to encode allocation input: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
