package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ynishi/propel/internal/executor"
	"github.com/ynishi/propel/internal/gcloud"
	"github.com/ynishi/propel/internal/output"
	"github.com/ynishi/propel/internal/pipeline"
)

var deployAllowDirty bool

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Build and deploy the service to Cloud Run",
	Long: `Bundles the project source, submits a remote container build, and rolls
the resulting image out as a Cloud Run revision.`,
	Example: "  - propel deploy\n  - propel deploy --allow-dirty",
	RunE:    runDeploy,
	Args:    cobra.NoArgs,
}

func init() {
	deployCmd.Flags().BoolVar(&deployAllowDirty, "allow-dirty", false,
		"Deploy even when the working tree has uncommitted changes")
	rootCmd.AddCommand(deployCmd)
}

// deployStepCount covers bundling through rollout; validation failures
// surface before the step display starts.
const deployStepCount = 3

// deployStep maps a pipeline phase to its position in the step display.
func deployStep(phase pipeline.Phase) (int, string) {
	switch phase {
	case pipeline.PhaseBundling:
		return 1, "Bundling source"
	case pipeline.PhaseBuilding:
		return 2, "Building container image"
	case pipeline.PhaseDeploying:
		return 3, "Deploying to Cloud Run"
	}
	return 0, ""
}

func runDeploy(cmd *cobra.Command, _ []string) error {
	dir, err := workingDir()
	if err != nil {
		return err
	}

	exec := executor.New()
	deployer := pipeline.New(exec, gcloud.New(exec))

	res := deployer.Deploy(cmd.Context(), pipeline.DeployOptions{
		ProjectDir: dir,
		AllowDirty: deployAllowDirty,
		Progress: func(phase pipeline.Phase) {
			if step, label := deployStep(phase); step > 0 {
				output.Step(step, deployStepCount, label)
			}
		},
		Warnf: output.Warningf,
	})
	if res.Err != nil {
		if step, label := deployStep(res.Phase); step > 0 {
			output.StepError(step, deployStepCount, label)
		}
		return res.Err
	}

	output.Blank()
	output.Successf("Deployed %s", output.Bold(res.Service))
	output.KeyValue("URL", res.ServiceURL)
	output.KeyValue("Image", res.ImageTag)
	output.KeyValue("Build", res.BuildID)
	return nil
}

// confirmOrAbort asks unless the command carries --yes.
func confirmOrAbort(assumeYes bool, prompt string) error {
	if assumeYes {
		return nil
	}
	if !output.Confirm(prompt) {
		return fmt.Errorf("aborted")
	}
	return nil
}
