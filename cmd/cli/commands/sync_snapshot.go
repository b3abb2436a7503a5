package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/admissions/pkg/core/model"
	"github.com/jakechorley/admissions/pkg/core/services"
)

// snapshotFile is the upload format for an application list (YAML or JSON)
type snapshotFile struct {
	Records []snapshotRecord `yaml:"records"`
}

type snapshotRecord struct {
	ApplicantID  int64  `yaml:"applicantId"`
	Program      string `yaml:"program"`
	Priority     int    `yaml:"priority"`
	Physics      int    `yaml:"physics"`
	Russian      int    `yaml:"russian"`
	Math         int    `yaml:"math"`
	Achievements int    `yaml:"achievements"`
	// Total defaults to the sum of the component scores
	Total   *int `yaml:"total"`
	Consent bool `yaml:"consent"`
}

func (r snapshotRecord) toModel() model.ApplicationRecord {
	total := r.Physics + r.Russian + r.Math + r.Achievements
	if r.Total != nil {
		total = *r.Total
	}
	return model.ApplicationRecord{
		ApplicantID:      r.ApplicantID,
		ProgramCode:      r.Program,
		Priority:         r.Priority,
		TotalScore:       total,
		ConsentGiven:     r.Consent,
		PhysicsScore:     r.Physics,
		RussianScore:     r.Russian,
		MathScore:        r.Math,
		AchievementScore: r.Achievements,
	}
}

// parseSnapshot decodes an uploaded application list
func parseSnapshot(data []byte) ([]model.ApplicationRecord, error) {
	var file snapshotFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file: %w", err)
	}

	records := make([]model.ApplicationRecord, 0, len(file.Records))
	for i, r := range file.Records {
		if r.ApplicantID <= 0 {
			return nil, fmt.Errorf("snapshot record %d has no applicantId", i)
		}
		records = append(records, r.toModel())
	}
	return records, nil
}

// SyncSnapshotCmd creates the syncSnapshot command
func SyncSnapshotCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "syncSnapshot <date> <file>",
		Short: "Replace the application list of a date with the contents of a YAML or JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := services.ParseDate(args[0])
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read snapshot file: %w", err)
			}

			records, err := parseSnapshot(data)
			if err != nil {
				return err
			}

			app.Logger.Debug("syncSnapshot command",
				zap.String("date", args[0]),
				zap.String("file", args[1]),
				zap.Int("records", len(records)))

			summary, err := services.SyncSnapshot(app.Ctx, app.Database, app.Logger, app.Cfg.ModelPrograms(), date, records)
			if err != nil {
				return err
			}

			renderUploadSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

// UploadsCmd creates the uploads command
func UploadsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uploads",
		Short: "Show the most recent snapshot uploads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit < 1 {
				return fmt.Errorf("limit must be a positive integer, got: %d", limit)
			}

			history, err := app.Database.GetUploadHistory(app.Ctx, limit)
			if err != nil {
				return err
			}

			renderUploadHistory(cmd.OutOrStdout(), history)
			return nil
		},
	}

	cmd.Flags().Int("limit", 10, "Number of uploads to show")

	return cmd
}
