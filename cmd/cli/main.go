package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/admissions/cmd/cli/commands"
	"github.com/jakechorley/admissions/internal/config"
	"github.com/jakechorley/admissions/pkg/cache"
	"github.com/jakechorley/admissions/pkg/metrics"
	"github.com/jakechorley/admissions/pkg/postgres"
	"github.com/jakechorley/admissions/pkg/utils/logging"
)

var (
	env     string
	logsDir string
	app     = &commands.AppContext{Ctx: context.Background()}

	database     *postgres.DB
	outcomeCache *cache.OutcomeCache
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Admissions CLI - passing scores from daily application lists",
		Long:  `A CLI tool for syncing daily application lists and calculating program passing scores.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdown()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().StringVar(&logsDir, "logs-dir", logging.DefaultLogsDir, "Directory for log files")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.SyncSnapshotCmd(app))
	rootCmd.AddCommand(commands.UploadsCmd(app))
	rootCmd.AddCommand(commands.ApplicationsCmd(app))
	rootCmd.AddCommand(commands.PassingScoresCmd(app))
	rootCmd.AddCommand(commands.SavedResultsCmd(app))
	rootCmd.AddCommand(commands.StatisticsCmd(app))
	rootCmd.AddCommand(commands.AdmittedCmd(app))
	rootCmd.AddCommand(commands.DynamicsCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd())

	if err := rootCmd.Execute(); err != nil {
		shutdown()
		os.Exit(1)
	}
}

// initApp sets up logger, config, database and cache
func initApp() error {
	var err error

	app.Logger, err = logging.InitLogger(env, logsDir)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully", zap.Int("programs", len(app.Cfg.Programs)))

	app.Logger.Info("Connecting to database")
	database, err = postgres.NewDB(app.Ctx, app.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.Database = database
	app.Migrator = database
	app.Logger.Info("Database initialized successfully")

	if app.Cfg.RedisAddress != "" {
		app.Logger.Info("Connecting to outcome cache", zap.String("address", app.Cfg.RedisAddress))
		outcomeCache = cache.New(app.Cfg.RedisAddress, app.Cfg.CacheTTLDuration())
		if err := outcomeCache.Ping(app.Ctx); err != nil {
			app.Logger.Warn("Outcome cache unavailable, continuing without it", zap.Error(err))
			outcomeCache.Close()
			outcomeCache = nil
		} else {
			app.Cache = outcomeCache
		}
	}

	return nil
}

// shutdown exports metrics and releases connections; safe to call more than once
func shutdown() {
	if app.Cfg != nil && app.Cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(app.Cfg.MetricsTextfile); err != nil && app.Logger != nil {
			app.Logger.Warn("Failed to export metrics", zap.Error(err))
		}
	}
	if outcomeCache != nil {
		outcomeCache.Close()
		outcomeCache = nil
		app.Cache = nil
	}
	if database != nil {
		database.Close()
		database = nil
	}
	if app.Logger != nil {
		app.Logger.Sync()
	}
}
