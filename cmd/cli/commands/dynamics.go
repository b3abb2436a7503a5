package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/admissions/internal/config"
	"github.com/jakechorley/admissions/pkg/core/services"
)

type dateLister interface {
	ListDates(ctx context.Context) ([]time.Time, error)
}

// resolveDynamicsDates picks the report dates: an explicit --from/--to range,
// then the configured snapshot schedule, then every date with stored records.
func resolveDynamicsDates(ctx context.Context, from, to string, cfg *config.Config, lister dateLister) ([]time.Time, error) {
	if from != "" || to != "" {
		if from == "" || to == "" {
			return nil, fmt.Errorf("--from and --to must be given together")
		}
		start, err := services.ParseDate(from)
		if err != nil {
			return nil, err
		}
		end, err := services.ParseDate(to)
		if err != nil {
			return nil, err
		}
		return services.DateRange(start, end)
	}

	if cfg.SnapshotSchedule != "" {
		return cfg.SnapshotDates()
	}

	dates, err := lister.ListDates(ctx)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("no list dates stored; sync a snapshot first")
	}
	return dates, nil
}

// DynamicsCmd creates the dynamics command
func DynamicsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dynamics",
		Short: "Show how passing scores change across list dates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			asJSON, _ := cmd.Flags().GetBool("json")

			dates, err := resolveDynamicsDates(app.Ctx, from, to, app.Cfg, app.Database)
			if err != nil {
				return err
			}

			app.Logger.Debug("dynamics command", zap.Int("dates", len(dates)))

			report, err := services.ViewDynamics(
				app.Ctx,
				app.Database,
				app.Cache,
				app.Logger,
				app.Cfg.ModelPrograms(),
				dates,
				app.Cfg.MaxParallelDates,
			)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}

			renderDynamics(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().String("from", "", "First list date (defaults to the configured snapshot schedule)")
	cmd.Flags().String("to", "", "Last list date")
	cmd.Flags().Bool("json", false, "Print the report as JSON")

	return cmd
}

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applied, err := app.Migrator.RunMigrations(app.Ctx)
			if err != nil {
				return err
			}

			app.Logger.Info("Migrations applied", zap.Strings("files", applied))

			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Database schema is up to date.")
				return nil
			}
			for _, f := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "  ✓ %s\n", f)
			}
			return nil
		},
	}
}
