package cli

import (
	"github.com/spf13/cobra"

	"github.com/ynishi/propel/internal/output"
	"github.com/ynishi/propel/internal/scaffold"
)

var newCmd = &cobra.Command{
	Use:     "new <name>",
	Short:   "Scaffold a new deployable service project",
	Example: "  - propel new my-api",
	RunE:    runNew,
	Args:    cobra.ExactArgs(1),
}

func init() {
	rootCmd.AddCommand(newCmd)
}

func runNew(_ *cobra.Command, args []string) error {
	name := args[0]
	if err := scaffold.NewProject(name); err != nil {
		return err
	}

	output.Successf("Created project %s", output.Bold(name))
	output.Blank()
	output.Println("  cd " + name)
	output.Println("  cargo run       # local development")
	output.Println("  propel doctor   # check your environment")
	output.Println("  propel deploy   # deploy to Cloud Run")
	return nil
}
