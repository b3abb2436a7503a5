package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/admissions/pkg/core/model"
)

const (
	configFileBase          = "admissions_config"
	defaultMaxParallelDates = 4
	defaultCacheTTL         = 24 * time.Hour
)

// Program defines a study program and its seat count
type Program struct {
	Code  string `yaml:"code" validate:"required"`
	Name  string `yaml:"name,omitempty"`
	Seats int    `yaml:"seats" validate:"min=1"`
}

// Config represents the application configuration
type Config struct {
	Programs         []Program `yaml:"programs" validate:"required,min=1,unique=Code,dive"`
	DatabaseURL      string    `yaml:"databaseURL" validate:"required"`
	RedisAddress     string    `yaml:"redisAddress,omitempty"`
	CacheTTL         string    `yaml:"cacheTTL,omitempty"`
	SnapshotSchedule string    `yaml:"snapshotSchedule,omitempty"`
	MetricsTextfile  string    `yaml:"metricsTextfile,omitempty"`
	MaxParallelDates int       `yaml:"maxParallelDates,omitempty" validate:"omitempty,min=1"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from admissions_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads admissions_config.<env>.yaml, or admissions_config.yaml when env is empty
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	if cfg.MaxParallelDates == 0 {
		cfg.MaxParallelDates = defaultMaxParallelDates
	}

	return &cfg, nil
}

// Validate validates the configuration struct, the cache TTL and the snapshot schedule
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.CacheTTL != "" {
		ttl, err := time.ParseDuration(cfg.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cacheTTL %q: %w", cfg.CacheTTL, err)
		}
		if ttl <= 0 {
			return fmt.Errorf("invalid cacheTTL %q: must be positive", cfg.CacheTTL)
		}
	}

	if cfg.SnapshotSchedule != "" {
		if _, err := rrule.StrToRRuleSet(strings.TrimSpace(cfg.SnapshotSchedule)); err != nil {
			return fmt.Errorf("invalid rrule in snapshotSchedule: %w", err)
		}
	}

	return nil
}

// ModelPrograms converts the configured programs into the allocation model
func (c *Config) ModelPrograms() []model.Program {
	programs := make([]model.Program, 0, len(c.Programs))
	for _, p := range c.Programs {
		programs = append(programs, model.Program{Code: p.Code, Name: p.Name, Seats: p.Seats})
	}
	return programs
}

// CacheTTLDuration returns the parsed cache TTL, defaulting to 24h
func (c *Config) CacheTTLDuration() time.Duration {
	if c.CacheTTL == "" {
		return defaultCacheTTL
	}
	ttl, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return defaultCacheTTL
	}
	return ttl
}

// SnapshotDates enumerates the dates described by snapshotSchedule.
// Times are truncated to the calendar day in UTC and duplicates removed.
func (c *Config) SnapshotDates() ([]time.Time, error) {
	if c.SnapshotSchedule == "" {
		return nil, fmt.Errorf("snapshotSchedule is not configured")
	}

	set, err := rrule.StrToRRuleSet(strings.TrimSpace(c.SnapshotSchedule))
	if err != nil {
		return nil, fmt.Errorf("invalid rrule in snapshotSchedule: %w", err)
	}

	occurrences := set.All()
	dates := make([]time.Time, 0, len(occurrences))
	seen := make(map[time.Time]bool, len(occurrences))
	for _, occurrence := range occurrences {
		u := occurrence.UTC()
		day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
		if seen[day] {
			continue
		}
		seen[day] = true
		dates = append(dates, day)
	}

	return dates, nil
}

func configFileName(env string) string {
	if env == "" {
		return configFileBase + ".yaml"
	}
	return fmt.Sprintf("%s.%s.yaml", configFileBase, env)
}

// findConfigFile searches for the config file in current directory and home directory
func findConfigFile(env string) (string, error) {
	name := configFileName(env)

	// Check current directory
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", name)
}
