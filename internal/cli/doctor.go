package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ynishi/propel/internal/config"
	"github.com/ynishi/propel/internal/constants"
	"github.com/ynishi/propel/internal/doctor"
	apperrors "github.com/ynishi/propel/internal/errors"
	"github.com/ynishi/propel/internal/executor"
	"github.com/ynishi/propel/internal/gcloud"
	"github.com/ynishi/propel/internal/output"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the environment is ready to deploy",
	Long: `Runs the full readiness battery: gcloud installation, authentication,
project access, billing, required APIs, and the project configuration.
Every check runs even when an earlier one fails. With --fix, disabled
APIs are enabled on the target project.`,
	RunE: runDoctor,
	Args: cobra.NoArgs,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Enable required APIs that are disabled")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	dir, err := workingDir()
	if err != nil {
		return err
	}

	client := gcloud.New(executor.New())
	engine := doctor.New(client, dir)
	report := engine.Run(cmd.Context())

	if doctorFix {
		if fixed := fixDisabledAPIs(cmd.Context(), client, dir, report); fixed {
			// Re-run so the report reflects the repaired state.
			report = engine.Run(cmd.Context())
		}
	}
	renderReport(report)

	if !report.AllPassed() {
		return fmt.Errorf("some checks did not pass")
	}
	return nil
}

// apiEnabler enables a service API on the project.
type apiEnabler interface {
	EnableAPI(ctx context.Context, projectID, api string) error
}

// fixDisabledAPIs enables every required API whose check failed. Returns
// whether any enable succeeded.
func fixDisabledAPIs(ctx context.Context, client apiEnabler, dir string, report *doctor.Report) bool {
	cfg, err := config.Load(dir)
	if err != nil || cfg.Project.GCPProjectID == "" {
		return false
	}

	failed := map[string]bool{}
	for _, c := range report.Checks {
		if c.Status == doctor.StatusFail {
			failed[c.Name] = true
		}
	}

	fixed := false
	for _, api := range constants.RequiredAPIs {
		if !failed[api.Label+" API"] {
			continue
		}
		output.Infof("Enabling %s...", api.Name)
		if err := client.EnableAPI(ctx, cfg.Project.GCPProjectID, api.Name); err != nil {
			output.Errorf("failed to enable %s: %s", api.Name, apperrors.GetDetails(err))
			continue
		}
		fixed = true
	}
	return fixed
}

func renderReport(report *doctor.Report) {
	output.Header("Environment checks")
	for _, c := range report.Checks {
		switch c.Status {
		case doctor.StatusPass:
			output.Println("  " + output.Green("✓") + " " + c.Name + "  " + output.Gray(c.Detail))
		case doctor.StatusFail:
			output.Println("  " + output.Red("✗") + " " + c.Name + "  " + c.Detail)
		case doctor.StatusUnknown:
			output.Println("  " + output.Yellow("?") + " " + c.Name + "  " + output.Gray(c.Detail))
		}
	}
	output.Blank()

	if report.AllPassed() {
		output.Successf("All checks passed")
	} else {
		output.Errorf("Fix the failed checks above and run doctor again")
	}
}
