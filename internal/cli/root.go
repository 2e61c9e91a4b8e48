// Package cli wires the propel command tree. Commands stay thin: they
// resolve the working directory, construct the executor and the gcloud
// client, and delegate to the owning package.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ynishi/propel/internal/constants"
	apperrors "github.com/ynishi/propel/internal/errors"
	"github.com/ynishi/propel/internal/logger"
	"github.com/ynishi/propel/internal/output"
)

var (
	debug         bool
	verbose       bool
	timeout       string
	timeoutCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:   constants.ProjectName,
	Short: "Deploy compiled services to Cloud Run",
	Long: fmt.Sprintf(`%s %s
Builds your service remotely and deploys it to Cloud Run, driving the
gcloud CLI so your local credentials and tooling keep working.`,
		constants.ProjectName, constants.GetVersion()),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}
		logger.Initialize(logLevel)

		if verbose {
			output.Infof("propel %s", output.Bold(constants.GetVersion()))
		}

		ctx, cancel, err := commandContext(cmd.Context(), timeout)
		if err != nil {
			return err
		}
		timeoutCancel = cancel
		cmd.SetContext(ctx)
		return nil
	},
}

// commandContext applies the --timeout flag to the parent context. A zero
// or negative duration disables the deadline.
func commandContext(parent context.Context, timeout string) (context.Context, context.CancelFunc, error) {
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --timeout %q: use a duration like 30m or 1h", timeout)
	}
	if d <= 0 {
		return parent, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, cancel, nil
}

// Execute runs the root command and maps failures to the exit code.
func Execute() {
	err := rootCmd.Execute()
	if timeoutCancel != nil {
		timeoutCancel()
	}

	if err != nil {
		output.Errorf(err.Error())
		if details := apperrors.GetDetails(err); details != "" && details != err.Error() {
			output.Printf("  %s\n", output.Gray(details))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&timeout, "timeout", "30m",
		"Overall command timeout (e.g. 30m, 1h, 0 to disable)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debugging logs")
}

// workingDir resolves the project directory every command operates on.
func workingDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", apperrors.ErrLocalIO("failed to resolve working directory", err)
	}
	return dir, nil
}

// RootCmd returns the root command for use by tools like doc generators.
func RootCmd() *cobra.Command {
	return rootCmd
}
