// Package gcloud is the remote operations client. Every operation is a pure
// translation: build the gcloud argument list, invoke the executor, parse the
// output, and classify failures into the propel error taxonomy. All side
// effects live on the remote platform; the client holds no mutable state.
package gcloud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ynishi/propel/internal/constants"
	apperrors "github.com/ynishi/propel/internal/errors"
	"github.com/ynishi/propel/internal/executor"
)

// Client issues gcloud commands through the executor seam.
type Client struct {
	exec executor.Executor
	log  *slog.Logger
}

// New creates a client over the given executor.
func New(exec executor.Executor) *Client {
	return &Client{exec: exec, log: slog.Default()}
}

// run executes a gcloud command and captures stdout. A nonzero exit is
// classified into the error taxonomy with stderr preserved verbatim.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	c.log.Debug("gcloud", "args", strings.Join(args, " "))
	res, err := c.exec.Run(ctx, constants.GcloudBinary, args, executor.Options{})
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", c.failure(ctx, args, res)
	}
	return res.Stdout, nil
}

// failure classifies a nonzero exit. A command killed by ctx expiry reports
// no useful stderr, so the deadline or cancellation takes precedence over
// stderr classification.
func (c *Client) failure(ctx context.Context, args []string, res executor.Result) error {
	if ctx.Err() != nil {
		return waitErr(ctx, "gcloud "+strings.Join(args, " "))
	}
	return classifyDetail(res.Stderr)
}

// runStream executes a gcloud command with output connected to the terminal.
func (c *Client) runStream(ctx context.Context, args ...string) error {
	c.log.Debug("gcloud (streaming)", "args", strings.Join(args, " "))
	res, err := c.exec.Run(ctx, constants.GcloudBinary, args, executor.Options{Stream: true})
	if err != nil {
		return err
	}
	if !res.Success() {
		if ctx.Err() != nil {
			return waitErr(ctx, "gcloud "+strings.Join(args, " "))
		}
		return classifyDetail(fmt.Sprintf("gcloud exited with code %d", res.ExitCode))
	}
	return nil
}

// runStdin executes a gcloud command with data piped to stdin.
func (c *Client) runStdin(ctx context.Context, stdin []byte, args ...string) (string, error) {
	c.log.Debug("gcloud (stdin)", "args", strings.Join(args, " "))
	res, err := c.exec.Run(ctx, constants.GcloudBinary, args, executor.Options{Stdin: stdin})
	if err != nil {
		return "", err
	}
	if !res.Success() {
		return "", c.failure(ctx, args, res)
	}
	return res.Stdout, nil
}

// Identity and preflight operations.

// Version returns the installed Google Cloud SDK version line.
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "version")
	if err != nil {
		return "", err
	}
	// First line reads "Google Cloud SDK X.Y.Z".
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(strings.TrimPrefix(line, "Google Cloud SDK ")), nil
}

// ActiveAccount returns the authenticated account, empty when none is active.
func (c *Client) ActiveAccount(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "config", "get-value", "account")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// DescribeProject returns the display name of the project.
func (c *Client) DescribeProject(ctx context.Context, projectID string) (string, error) {
	out, err := c.run(ctx, "projects", "describe", projectID, "--format", "value(name)")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ProjectNumber returns the numeric project identifier.
func (c *Client) ProjectNumber(ctx context.Context, projectID string) (string, error) {
	out, err := c.run(ctx, "projects", "describe", projectID, "--format", "value(projectNumber)")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// BillingEnabled reports whether billing is enabled on the project.
func (c *Client) BillingEnabled(ctx context.Context, projectID string) (bool, error) {
	out, err := c.run(ctx, "billing", "projects", "describe", projectID,
		"--format", "value(billingEnabled)")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(out), "true"), nil
}

// APIEnabled reports whether the given service API is enabled.
func (c *Client) APIEnabled(ctx context.Context, projectID, api string) (bool, error) {
	out, err := c.run(ctx, "services", "list",
		"--project", projectID,
		"--filter", "config.name="+api,
		"--format", "value(config.name)")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// EnableAPI enables a service API on the project.
func (c *Client) EnableAPI(ctx context.Context, projectID, api string) error {
	_, err := c.run(ctx, "services", "enable", api, "--project", projectID, "--quiet")
	return err
}

// Artifact Registry operations.

// EnsureArtifactRepo makes sure the Docker repository exists, creating it
// when absent.
func (c *Client) EnsureArtifactRepo(ctx context.Context, projectID, region, repo string) error {
	_, err := c.run(ctx, "artifacts", "repositories", "describe", repo,
		"--project", projectID,
		"--location", region)
	if err == nil {
		return nil
	}
	if apperrors.IsKind(err, apperrors.KindLaunchFailed) {
		return err
	}

	_, err = c.run(ctx, "artifacts", "repositories", "create", repo,
		"--project", projectID,
		"--location", region,
		"--repository-format", "docker",
		"--quiet")
	return err
}

// DeleteImage removes a container image and its tags from Artifact Registry.
func (c *Client) DeleteImage(ctx context.Context, imageTag, projectID string) error {
	_, err := c.run(ctx, "artifacts", "docker", "images", "delete", imageTag,
		"--project", projectID,
		"--delete-tags",
		"--quiet")
	return err
}

// Cloud Build operations.

// SubmitBuild submits the bundle directory as a build context and returns
// the remote build identifier without waiting for completion.
func (c *Client) SubmitBuild(ctx context.Context, bundleDir, projectID, imageTag string) (string, error) {
	out, err := c.run(ctx, "builds", "submit", bundleDir,
		"--project", projectID,
		"--tag", imageTag,
		"--async",
		"--quiet",
		"--format", "value(id)")
	if err != nil {
		return "", err
	}
	buildID := strings.TrimSpace(out)
	if buildID == "" {
		return "", apperrors.ErrRemoteUnknown("build submission returned no build id", nil)
	}
	return buildID, nil
}

// BuildStatus returns the current status and failure detail of a build.
func (c *Client) BuildStatus(ctx context.Context, projectID, buildID string) (status, detail string, err error) {
	out, err := c.run(ctx, "builds", "describe", buildID,
		"--project", projectID,
		"--format", "value(status,statusDetail)")
	if err != nil {
		return "", "", err
	}
	// value() joins multiple fields with a tab.
	status, detail, _ = strings.Cut(strings.TrimSpace(out), "\t")
	return status, strings.TrimSpace(detail), nil
}

// WaitForBuild polls the build at a fixed interval until it reaches a
// terminal status or ctx expires. The remote build is not cancelled on
// ctx expiry; only the local wait stops.
func (c *Client) WaitForBuild(ctx context.Context, projectID, buildID string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, detail, err := c.BuildStatus(ctx, projectID, buildID)
		if err != nil {
			return err
		}
		c.log.Debug("build status", "build_id", buildID, "status", status)

		if constants.IsTerminalBuildStatus(status) {
			if status == constants.BuildStatusSuccess {
				return nil
			}
			if detail == "" {
				detail = fmt.Sprintf("build %s finished with status %s", buildID, status)
			}
			return classifyDetail(detail)
		}

		select {
		case <-ctx.Done():
			return waitErr(ctx, fmt.Sprintf("waiting for build %s", buildID))
		case <-ticker.C:
		}
	}
}

// Cloud Run operations.

// DeployRequest carries everything `run deploy` needs.
type DeployRequest struct {
	Service      string
	ImageTag     string
	ProjectID    string
	Region       string
	Memory       string
	CPU          int
	MinInstances int
	MaxInstances int
	Concurrency  int
	Port         int
	// Secrets are injected as SECRET=SECRET:latest environment references.
	Secrets []string
}

// Deploy submits a new revision and returns without waiting for rollout.
func (c *Client) Deploy(ctx context.Context, req DeployRequest) error {
	args := []string{
		"run", "deploy", req.Service,
		"--image", req.ImageTag,
		"--project", req.ProjectID,
		"--region", req.Region,
		"--platform", "managed",
		"--memory", req.Memory,
		"--cpu", fmt.Sprintf("%d", req.CPU),
		"--min-instances", fmt.Sprintf("%d", req.MinInstances),
		"--max-instances", fmt.Sprintf("%d", req.MaxInstances),
		"--concurrency", fmt.Sprintf("%d", req.Concurrency),
		"--port", fmt.Sprintf("%d", req.Port),
		"--allow-unauthenticated",
		"--async",
		"--quiet",
	}

	if len(req.Secrets) > 0 {
		refs := make([]string, len(req.Secrets))
		for i, s := range req.Secrets {
			refs[i] = fmt.Sprintf("%s=%s:latest", s, s)
		}
		args = append(args, "--update-secrets", strings.Join(refs, ","))
	}

	_, err := c.run(ctx, args...)
	return err
}

// WaitForService polls the service until its Ready condition is terminal or
// ctx expires. On success the service URL is returned.
func (c *Client) WaitForService(ctx context.Context, service, projectID, region string, interval time.Duration) (string, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := c.DescribeService(ctx, service, projectID, region)
		if err != nil {
			return "", err
		}

		if cond, ok := status.ReadyCondition(); ok {
			switch cond.Status {
			case "True":
				return status.URL, nil
			case "False":
				detail := cond.Message
				if detail == "" {
					detail = fmt.Sprintf("service %s is not ready (%s)", service, cond.Reason)
				}
				return "", classifyDetail(detail)
			}
		}
		c.log.Debug("service not ready yet", "service", service)

		select {
		case <-ctx.Done():
			return "", waitErr(ctx, fmt.Sprintf("waiting for service %s", service))
		case <-ticker.C:
		}
	}
}

// DescribeService fetches and parses the service status.
func (c *Client) DescribeService(ctx context.Context, service, projectID, region string) (*ServiceStatus, error) {
	out, err := c.run(ctx, "run", "services", "describe", service,
		"--project", projectID,
		"--region", region,
		"--format", "yaml(status)")
	if err != nil {
		return nil, err
	}
	return parseServiceStatus(out)
}

// DeleteService removes the Cloud Run service.
func (c *Client) DeleteService(ctx context.Context, service, projectID, region string) error {
	_, err := c.run(ctx, "run", "services", "delete", service,
		"--project", projectID,
		"--region", region,
		"--quiet")
	return err
}

// ReadLogs prints the most recent log lines for the service.
func (c *Client) ReadLogs(ctx context.Context, service, projectID, region string, limit int) error {
	return c.runStream(ctx, "run", "services", "logs", "read", service,
		"--project", projectID,
		"--region", region,
		"--limit", fmt.Sprintf("%d", limit))
}

// TailLogs streams logs until ctx is cancelled.
func (c *Client) TailLogs(ctx context.Context, service, projectID, region string) error {
	return c.runStream(ctx, "beta", "run", "services", "logs", "tail", service,
		"--project", projectID,
		"--region", region)
}

// Secret Manager operations.

// SetSecret creates the secret when absent and adds a new version with the
// given value piped through stdin.
func (c *Client) SetSecret(ctx context.Context, projectID, name, value string) error {
	_, err := c.run(ctx, "secrets", "describe", name, "--project", projectID)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindLaunchFailed) {
			return err
		}
		if _, err := c.run(ctx, "secrets", "create", name,
			"--project", projectID,
			"--replication-policy", "automatic"); err != nil {
			return err
		}
	}

	_, err = c.runStdin(ctx, []byte(value),
		"secrets", "versions", "add", name,
		"--project", projectID,
		"--data-file", "-")
	return err
}

// ListSecrets returns the names of all secrets in the project.
func (c *Client) ListSecrets(ctx context.Context, projectID string) ([]string, error) {
	out, err := c.run(ctx, "secrets", "list",
		"--project", projectID,
		"--format", "value(name)")
	if err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// DeleteSecret removes a secret and all its versions.
func (c *Client) DeleteSecret(ctx context.Context, projectID, name string) error {
	_, err := c.run(ctx, "secrets", "delete", name, "--project", projectID, "--quiet")
	return err
}

// GrantSecretAccess grants the service account read access to the secret.
func (c *Client) GrantSecretAccess(ctx context.Context, projectID, name, serviceAccount string) error {
	_, err := c.run(ctx, "secrets", "add-iam-policy-binding", name,
		"--project", projectID,
		"--member", "serviceAccount:"+serviceAccount,
		"--role", "roles/secretmanager.secretAccessor")
	return err
}

// waitErr maps ctx expiry to the taxonomy: a deadline becomes a timeout
// error, an explicit cancel becomes a cancelled error.
func waitErr(ctx context.Context, what string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.ErrTimeout(what+": deadline exceeded", ctx.Err())
	}
	return apperrors.ErrCancelled(what+": cancelled", ctx.Err())
}
