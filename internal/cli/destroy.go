package cli

import (
	"github.com/spf13/cobra"

	"github.com/ynishi/propel/internal/executor"
	"github.com/ynishi/propel/internal/gcloud"
	"github.com/ynishi/propel/internal/output"
	"github.com/ynishi/propel/internal/pipeline"
)

var (
	destroyYes            bool
	destroyIncludeSecrets bool
)

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Tear down the deployed service and its image",
	Long: `Deletes the Cloud Run service, the container image, and the local bundle
directory. Secrets survive unless --include-secrets is passed.`,
	Example: "  - propel destroy\n  - propel destroy --yes --include-secrets",
	RunE:    runDestroy,
	Args:    cobra.NoArgs,
}

func init() {
	destroyCmd.Flags().BoolVar(&destroyYes, "yes", false, "Skip the confirmation prompt")
	destroyCmd.Flags().BoolVar(&destroyIncludeSecrets, "include-secrets", false,
		"Also delete the project's secrets")
	rootCmd.AddCommand(destroyCmd)
}

func runDestroy(cmd *cobra.Command, _ []string) error {
	dir, err := workingDir()
	if err != nil {
		return err
	}

	prompt := "Delete the deployed service and its image?"
	if destroyIncludeSecrets {
		prompt = "Delete the deployed service, its image, and all secrets?"
	}
	if err := confirmOrAbort(destroyYes, prompt); err != nil {
		return err
	}

	exec := executor.New()
	deployer := pipeline.New(exec, gcloud.New(exec))

	results, err := deployer.Destroy(cmd.Context(), pipeline.DestroyOptions{
		ProjectDir:     dir,
		IncludeSecrets: destroyIncludeSecrets,
		Progress:       renderResourceResult,
	})
	if err != nil {
		return err
	}

	output.Blank()
	output.Successf("Destroyed %d resource(s)", len(results))
	return nil
}

func renderResourceResult(r pipeline.ResourceResult) {
	switch r.Status {
	case pipeline.ResourceDeleted:
		output.Successf("deleted %s", r.Resource)
	case pipeline.ResourceNotFound:
		output.Infof("%s already gone", r.Resource)
	case pipeline.ResourceFailed:
		output.Errorf("failed to delete %s", r.Resource)
	}
}
