package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/admissions/pkg/core/model"
	"github.com/jakechorley/admissions/pkg/core/services"
)

// parseConsentFlag maps the --consent flag to a filter value
func parseConsentFlag(value string) (*bool, error) {
	switch value {
	case "", "any":
		return nil, nil
	case "yes", "true":
		consent := true
		return &consent, nil
	case "no", "false":
		consent := false
		return &consent, nil
	default:
		return nil, fmt.Errorf("consent must be one of any, yes, no; got: %s", value)
	}
}

// ApplicationsCmd creates the applications command
func ApplicationsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "applications <date>",
		Short: "List the applications of a date, highest score first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := services.ParseDate(args[0])
			if err != nil {
				return err
			}

			program, _ := cmd.Flags().GetString("program")
			priority, _ := cmd.Flags().GetInt("priority")
			consentFlag, _ := cmd.Flags().GetString("consent")

			if priority != 0 && (priority < model.MinPriority || priority > model.MaxPriority) {
				return fmt.Errorf("priority must be between %d and %d, got: %d", model.MinPriority, model.MaxPriority, priority)
			}
			consent, err := parseConsentFlag(consentFlag)
			if err != nil {
				return err
			}

			app.Logger.Debug("applications command",
				zap.String("date", args[0]),
				zap.String("program", program),
				zap.Int("priority", priority),
				zap.String("consent", consentFlag))

			records, err := services.ListApplications(app.Ctx, app.Database, app.Logger, date, services.ApplicationFilter{
				ProgramCode: program,
				Priority:    priority,
				Consent:     consent,
			})
			if err != nil {
				return err
			}

			renderApplications(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().String("program", "", "Only show applications to this program code")
	cmd.Flags().Int("priority", 0, "Only show applications with this priority")
	cmd.Flags().String("consent", "any", "Filter by consent: any, yes, no")

	return cmd
}
