package commands

import (
	"context"

	"go.uber.org/zap"

	"github.com/jakechorley/admissions/internal/config"
	"github.com/jakechorley/admissions/pkg/core/services"
	"github.com/jakechorley/admissions/pkg/db"
)

// Migrator applies pending schema migrations
type Migrator interface {
	RunMigrations(ctx context.Context) ([]string, error)
}

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	Migrator Migrator
	// Cache is nil when no redisAddress is configured
	Cache  services.OutcomeCache
	Logger *zap.Logger
	Ctx    context.Context
}
