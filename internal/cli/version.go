package cli

import (
	"github.com/spf13/cobra"

	"github.com/ynishi/propel/internal/constants"
	"github.com/ynishi/propel/internal/executor"
	"github.com/ynishi/propel/internal/gcloud"
	"github.com/ynishi/propel/internal/output"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version of the CLI",
	Run: func(cmd *cobra.Command, _ []string) {
		output.KeyValue("CLI version", constants.GetVersion())

		client := gcloud.New(executor.New())
		sdkVersion, err := client.Version(cmd.Context())
		if err != nil {
			output.Warningf("gcloud not available")
			return
		}
		output.KeyValue("Google Cloud SDK", sdkVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
