package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/admissions/pkg/core/services"
)

// calculate runs the allocation for the date given as the first argument
func calculate(app *AppContext, rawDate string, save bool) (*services.CalculatePassingScoresResult, error) {
	date, err := services.ParseDate(rawDate)
	if err != nil {
		return nil, err
	}

	return services.CalculatePassingScores(
		app.Ctx,
		app.Database,
		app.Cache,
		app.Logger,
		app.Cfg.ModelPrograms(),
		date,
		save,
	)
}

// PassingScoresCmd creates the passingScores command
func PassingScoresCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passingScores <date>",
		Short: "Calculate passing scores for every program on a list date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			save, _ := cmd.Flags().GetBool("save")
			asJSON, _ := cmd.Flags().GetBool("json")

			app.Logger.Debug("passingScores command",
				zap.String("date", args[0]),
				zap.Bool("save", save))

			result, err := calculate(app, args[0], save)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result.Outcome)
			}

			renderPassingScores(cmd.OutOrStdout(), app.Cfg.ModelPrograms(), result)
			return nil
		},
	}

	cmd.Flags().Bool("save", false, "Persist admission results to the database")
	cmd.Flags().Bool("json", false, "Print the allocation outcome as JSON")

	return cmd
}

// StatisticsCmd creates the statistics command
func StatisticsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "statistics <date>",
		Short: "Show application, consent and priority statistics per program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("statistics command", zap.String("date", args[0]))

			result, err := calculate(app, args[0], false)
			if err != nil {
				return err
			}

			renderStatistics(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

// AdmittedCmd creates the admitted command
func AdmittedCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "admitted <date> <program_code>",
		Short: "List the applicants admitted to a program on a list date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("admitted command",
				zap.String("date", args[0]),
				zap.String("program", args[1]))

			result, err := calculate(app, args[0], false)
			if err != nil {
				return err
			}

			programResult, ok := result.Outcome.Results[args[1]]
			if !ok {
				return fmt.Errorf("unknown program %q", args[1])
			}

			renderAdmitted(cmd.OutOrStdout(), programResult)
			return nil
		},
	}
}

// SavedResultsCmd creates the savedResults command
func SavedResultsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "savedResults <date>",
		Short: "Show the admission results persisted for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := services.ParseDate(args[0])
			if err != nil {
				return err
			}

			results, err := app.Database.GetResultsByDate(app.Ctx, date)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return fmt.Errorf("no saved results for %s; run passingScores --save first", date.Format(services.DateLayout))
			}

			renderSavedResults(cmd.OutOrStdout(), date, results)
			return nil
		},
	}
}
