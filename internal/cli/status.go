package cli

import (
	"github.com/spf13/cobra"

	"github.com/ynishi/propel/internal/config"
	apperrors "github.com/ynishi/propel/internal/errors"
	"github.com/ynishi/propel/internal/executor"
	"github.com/ynishi/propel/internal/gcloud"
	"github.com/ynishi/propel/internal/manifest"
	"github.com/ynishi/propel/internal/output"
	"github.com/ynishi/propel/internal/pipeline"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the deployed service status",
	RunE:  runStatus,
	Args:  cobra.NoArgs,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	dir, err := workingDir()
	if err != nil {
		return err
	}
	cfg, meta, err := loadProject(dir)
	if err != nil {
		return err
	}

	service := pipeline.ServiceName(cfg, meta)
	client := gcloud.New(executor.New())

	status, err := client.DescribeService(cmd.Context(), service,
		cfg.Project.GCPProjectID, cfg.Project.Region)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindRemoteNotFound) {
			output.Warningf("Service %s is not deployed", output.Bold(service))
			return nil
		}
		return err
	}

	output.Header(service)
	if cond, ok := status.ReadyCondition(); ok {
		ready := output.Red(cond.Status)
		if cond.Status == "True" {
			ready = output.Green("True")
		}
		output.KeyValue("Ready", ready)
		if cond.Message != "" {
			output.KeyValue("Message", cond.Message)
		}
	}
	if status.URL != "" {
		output.KeyValue("URL", status.URL)
	}
	if status.LatestReadyRevisionName != "" {
		output.KeyValue("Latest ready revision", status.LatestReadyRevisionName)
	}
	if status.LatestCreatedRevisionName != "" &&
		status.LatestCreatedRevisionName != status.LatestReadyRevisionName {
		output.KeyValue("Latest created revision", status.LatestCreatedRevisionName)
	}
	output.KeyValue("Region", cfg.Project.Region)
	output.KeyValue("Version", meta.Version)
	return nil
}

// loadProject loads config and manifest and requires a target project.
func loadProject(dir string) (*config.Config, *manifest.Metadata, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, nil, err
	}
	meta, err := manifest.Load(dir)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Project.GCPProjectID == "" {
		return nil, nil, apperrors.ErrLocalValidation(
			"gcp_project_id is not set in propel.toml", nil)
	}
	return cfg, meta, nil
}
