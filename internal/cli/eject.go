package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ynishi/propel/internal/build"
	"github.com/ynishi/propel/internal/constants"
	"github.com/ynishi/propel/internal/manifest"
	"github.com/ynishi/propel/internal/output"

	"github.com/ynishi/propel/internal/config"
)

var ejectCmd = &cobra.Command{
	Use:   "eject",
	Short: "Write the generated Dockerfile into the project",
	Long: `Renders the Dockerfile propel would use and writes it to .propel/Dockerfile
for manual customization. Once ejected, deploy uses your file instead of
rendering one.`,
	RunE: runEject,
	Args: cobra.NoArgs,
}

func init() {
	rootCmd.AddCommand(ejectCmd)
}

func runEject(_ *cobra.Command, _ []string) error {
	dir, err := workingDir()
	if err != nil {
		return err
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	meta, err := manifest.Load(dir)
	if err != nil {
		return err
	}

	dockerfile := build.RenderDockerfile(&cfg.Build, meta, cfg.CloudRun.Port)
	if err := build.Eject(dir, dockerfile); err != nil {
		return err
	}

	path := filepath.Join(constants.EjectDirName, "Dockerfile")
	output.Successf("Ejected Dockerfile to %s", output.Bold(path))
	output.Infof("Edit it freely; deploy now uses this file")
	return nil
}
