package cli

import (
	"github.com/spf13/cobra"

	"github.com/ynishi/propel/internal/executor"
	"github.com/ynishi/propel/internal/gcloud"
	"github.com/ynishi/propel/internal/pipeline"
)

var (
	logsFollow bool
	logsLimit  int
)

var logsCmd = &cobra.Command{
	Use:     "logs",
	Short:   "Read the deployed service's logs",
	Example: "  - propel logs\n  - propel logs --follow\n  - propel logs --limit 200",
	RunE:    runLogs,
	Args:    cobra.NoArgs,
}

func init() {
	logsCmd.Flags().BoolVar(&logsFollow, "follow", false, "Stream new log entries until interrupted")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 50, "Number of recent entries to read")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, _ []string) error {
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

	if logsFollow {
		return client.TailLogs(cmd.Context(), service, cfg.Project.GCPProjectID, cfg.Project.Region)
	}
	return client.ReadLogs(cmd.Context(), service, cfg.Project.GCPProjectID, cfg.Project.Region, logsLimit)
}
