package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ynishi/propel/internal/config"
	"github.com/ynishi/propel/internal/constants"
	apperrors "github.com/ynishi/propel/internal/errors"
	"github.com/ynishi/propel/internal/executor"
	"github.com/ynishi/propel/internal/gcloud"
	"github.com/ynishi/propel/internal/output"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Secret management commands",
}

var setSecretCmd = &cobra.Command{
	Use:   "set <KEY=VALUE>",
	Short: "Create or update a secret",
	Long: `Stores the value as a new version of the named secret, creating the
secret when it does not exist. Deployed services pick the new version up
on the next deploy.`,
	Example: "  - propel secret set DB_URL=postgres://...\n  - propel secret set API_KEY=abc123",
	RunE:    runSetSecret,
	Args:    cobra.ExactArgs(1),
}

var (
	deleteSecretYes bool

	deleteSecretCmd = &cobra.Command{
		Use:     "delete <name>",
		Short:   "Delete a secret and all its versions",
		Example: "  - propel secret delete DB_URL --yes",
		RunE:    runDeleteSecret,
		Args:    cobra.ExactArgs(1),
	}
)

var listSecretsCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the project's secrets",
	Example: "  - propel secret list",
	RunE:    runListSecrets,
	Args:    cobra.NoArgs,
}

func init() {
	secretCmd.AddCommand(setSecretCmd)
	secretCmd.AddCommand(listSecretsCmd)
	deleteSecretCmd.Flags().BoolVar(&deleteSecretYes, "yes", false, "Skip the confirmation prompt")
	secretCmd.AddCommand(deleteSecretCmd)
	rootCmd.AddCommand(secretCmd)
}

// secretProjectID loads the config and requires a target project.
func secretProjectID(dir string) (string, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return "", err
	}
	if cfg.Project.GCPProjectID == "" {
		return "", apperrors.ErrLocalValidation("gcp_project_id is not set in "+constants.ConfigFileName, nil)
	}
	return cfg.Project.GCPProjectID, nil
}

// SplitSecretArg parses the KEY=VALUE form. The value may itself contain
// '='; only the first one splits.
func SplitSecretArg(arg string) (key, value string, err error) {
	key, value, ok := strings.Cut(arg, "=")
	if !ok || key == "" {
		return "", "", apperrors.ErrLocalValidation(
			"expected KEY=VALUE format, e.g. DB_URL=postgres://...", nil)
	}
	return key, value, nil
}

func runSetSecret(cmd *cobra.Command, args []string) error {
	key, value, err := SplitSecretArg(args[0])
	if err != nil {
		return err
	}

	dir, err := workingDir()
	if err != nil {
		return err
	}
	projectID, err := secretProjectID(dir)
	if err != nil {
		return err
	}

	client := gcloud.New(executor.New())
	if err := client.SetSecret(cmd.Context(), projectID, key, value); err != nil {
		return err
	}
	output.Successf("Secret %s set", output.Bold(key))

	grantRuntimeAccess(cmd.Context(), client, projectID, key)
	return nil
}

// secretAccessClient is the slice of remote operations the access grant uses.
type secretAccessClient interface {
	ProjectNumber(ctx context.Context, projectID string) (string, error)
	GrantSecretAccess(ctx context.Context, projectID, name, serviceAccount string) error
}

// grantRuntimeAccess grants the default compute service account read access
// to the secret so the next deploy can bind it. Best effort: a failed grant
// is reported but does not fail the set.
func grantRuntimeAccess(ctx context.Context, client secretAccessClient, projectID, name string) {
	number, err := client.ProjectNumber(ctx, projectID)
	if err != nil {
		output.Warningf("could not resolve the project number, grant access manually: %s",
			apperrors.GetDetails(err))
		return
	}

	serviceAccount := number + "-compute@developer.gserviceaccount.com"
	if err := client.GrantSecretAccess(ctx, projectID, name, serviceAccount); err != nil {
		output.Warningf("could not grant %s access to %s: %s",
			serviceAccount, name, apperrors.GetDetails(err))
		return
	}
	output.Infof("Granted read access to %s", serviceAccount)
}

func runListSecrets(cmd *cobra.Command, _ []string) error {
	dir, err := workingDir()
	if err != nil {
		return err
	}
	projectID, err := secretProjectID(dir)
	if err != nil {
		return err
	}

	client := gcloud.New(executor.New())
	names, err := client.ListSecrets(cmd.Context(), projectID)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		output.Warningf("No secrets found")
		return nil
	}
	for _, name := range names {
		output.Println(name)
	}
	return nil
}

func runDeleteSecret(cmd *cobra.Command, args []string) error {
	name := args[0]

	dir, err := workingDir()
	if err != nil {
		return err
	}
	projectID, err := secretProjectID(dir)
	if err != nil {
		return err
	}

	if err := confirmOrAbort(deleteSecretYes, "Delete secret "+name+"?"); err != nil {
		return err
	}

	client := gcloud.New(executor.New())
	if err := client.DeleteSecret(cmd.Context(), projectID, name); err != nil {
		return err
	}
	output.Successf("Secret %s deleted", output.Bold(name))
	return nil
}
