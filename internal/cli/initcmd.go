package cli

import (
	"github.com/spf13/cobra"

	"github.com/ynishi/propel/internal/output"
	"github.com/ynishi/propel/internal/scaffold"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize propel in an existing project",
	Example: "  - propel init",
	RunE:    runInit,
	Args:    cobra.NoArgs,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	dir, err := workingDir()
	if err != nil {
		return err
	}

	created, err := scaffold.Init(dir)
	if err != nil {
		return err
	}

	if len(created) == 0 {
		output.Infof("Nothing to create, already initialized")
		return nil
	}
	for _, f := range created {
		output.Successf("Created %s", output.Bold(f))
	}
	output.Blank()
	output.Println("  propel doctor   # check your environment")
	output.Println("  propel deploy   # deploy to Cloud Run")
	return nil
}
