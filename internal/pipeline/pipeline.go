// Package pipeline drives the end-to-end deployment flow: validate the
// project, assemble the bundle, run the remote build, and roll out the
// service. The pipeline owns ordering and failure semantics; all remote
// work goes through the gcloud client.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ynishi/propel/internal/build"
	"github.com/ynishi/propel/internal/config"
	"github.com/ynishi/propel/internal/constants"
	apperrors "github.com/ynishi/propel/internal/errors"
	"github.com/ynishi/propel/internal/executor"
	"github.com/ynishi/propel/internal/gcloud"
	"github.com/ynishi/propel/internal/git"
	"github.com/ynishi/propel/internal/manifest"
)

// Phase identifies a stage of the deploy pipeline.
type Phase string

const (
	PhaseValidating Phase = "validating"
	PhaseBundling   Phase = "bundling"
	PhaseBuilding   Phase = "building"
	PhaseDeploying  Phase = "deploying"
	PhaseDone       Phase = "done"
)

// Client is the slice of remote operations the pipeline needs.
type Client interface {
	EnsureArtifactRepo(ctx context.Context, projectID, region, repo string) error
	SubmitBuild(ctx context.Context, bundleDir, projectID, imageTag string) (string, error)
	WaitForBuild(ctx context.Context, projectID, buildID string, interval time.Duration) error
	Deploy(ctx context.Context, req gcloud.DeployRequest) error
	WaitForService(ctx context.Context, service, projectID, region string, interval time.Duration) (string, error)
	ListSecrets(ctx context.Context, projectID string) ([]string, error)
	DeleteService(ctx context.Context, service, projectID, region string) error
	DeleteImage(ctx context.Context, imageTag, projectID string) error
	DeleteSecret(ctx context.Context, projectID, name string) error
}

// Result is the outcome of a deploy run. On success Phase is PhaseDone and
// Err is nil; on failure Phase names the stage the pipeline stopped in.
type Result struct {
	Phase      Phase
	Service    string
	ImageTag   string
	BuildID    string
	ServiceURL string
	Err        error
}

// DeployOptions parameterize a single deploy run.
type DeployOptions struct {
	ProjectDir string
	// AllowDirty skips the clean-working-tree requirement.
	AllowDirty bool
	// Progress, when set, is called on every phase transition.
	Progress func(Phase)
	// Warnf, when set, receives non-fatal advisories.
	Warnf func(format string, args ...any)
}

// Deployer runs deploy and destroy flows for a project.
type Deployer struct {
	exec   executor.Executor
	client Client
	log    *slog.Logger
}

// New creates a deployer over the given executor and remote client.
func New(exec executor.Executor, client Client) *Deployer {
	return &Deployer{exec: exec, client: client, log: slog.Default()}
}

// Deploy runs the full pipeline. It never returns a partial success: any
// failure surfaces in Result.Err together with the phase it happened in,
// and no later phase runs.
func (d *Deployer) Deploy(ctx context.Context, opts DeployOptions) Result {
	progress := opts.Progress
	if progress == nil {
		progress = func(Phase) {}
	}
	warnf := opts.Warnf
	if warnf == nil {
		warnf = func(string, ...any) {}
	}

	progress(PhaseValidating)

	cfg, err := config.Load(opts.ProjectDir)
	if err != nil {
		return Result{Phase: PhaseValidating, Err: err}
	}
	meta, err := manifest.Load(opts.ProjectDir)
	if err != nil {
		return Result{Phase: PhaseValidating, Err: err}
	}
	if cfg.Project.GCPProjectID == "" {
		return Result{Phase: PhaseValidating, Err: apperrors.ErrLocalValidation(
			"gcp_project_id is not set in "+constants.ConfigFileName, nil)}
	}
	if cfg.Project.Region == "" {
		return Result{Phase: PhaseValidating, Err: apperrors.ErrLocalValidation(
			"region is not set in "+constants.ConfigFileName, nil)}
	}

	if !git.IsRepository(opts.ProjectDir) {
		return Result{Phase: PhaseValidating, Err: apperrors.ErrLocalValidation(
			"not a git repository: the bundle is enumerated through git", nil)}
	}

	if !opts.AllowDirty {
		dirty, err := git.IsDirty(ctx, d.exec, opts.ProjectDir)
		if err != nil {
			return Result{Phase: PhaseValidating, Err: err}
		}
		if dirty {
			return Result{Phase: PhaseValidating, Err: apperrors.ErrLocalValidation(
				"working tree has uncommitted changes, commit them or pass --allow-dirty", nil)}
		}
	}

	service := ServiceName(cfg, meta)
	imageTag := ImageTag(cfg.Project.Region, cfg.Project.GCPProjectID, service)
	result := Result{Service: service, ImageTag: imageTag}

	progress(PhaseBundling)

	dockerfile, err := d.dockerfile(opts.ProjectDir, cfg, meta)
	if err != nil {
		result.Phase, result.Err = PhaseBundling, err
		return result
	}
	bundle, err := build.Assemble(ctx, d.exec, opts.ProjectDir, dockerfile, cfg.Build.Include)
	if err != nil {
		result.Phase, result.Err = PhaseBundling, err
		return result
	}
	d.log.Debug("bundle assembled", "dir", bundle.Dir, "files", len(bundle.Files))

	progress(PhaseBuilding)

	if err := d.client.EnsureArtifactRepo(ctx, cfg.Project.GCPProjectID,
		cfg.Project.Region, constants.ArtifactRepoName); err != nil {
		result.Phase, result.Err = PhaseBuilding, err
		return result
	}

	buildID, err := d.client.SubmitBuild(ctx, bundle.Dir, cfg.Project.GCPProjectID, imageTag)
	if err != nil {
		result.Phase, result.Err = PhaseBuilding, err
		return result
	}
	result.BuildID = buildID
	d.log.Info("build submitted", "build_id", buildID)

	buildCtx, cancelBuild := context.WithTimeout(ctx, cfg.Timeouts.Build)
	err = d.client.WaitForBuild(buildCtx, cfg.Project.GCPProjectID, buildID, cfg.Timeouts.PollInterval)
	cancelBuild()
	if err != nil {
		result.Phase, result.Err = PhaseBuilding, err
		return result
	}

	progress(PhaseDeploying)

	// Secret discovery is best effort: the deploy proceeds without secret
	// bindings when listing fails.
	secrets, err := d.client.ListSecrets(ctx, cfg.Project.GCPProjectID)
	if err != nil {
		warnf("could not list secrets, deploying without secret bindings: %s",
			apperrors.GetDetails(err))
		secrets = nil
	}

	req := gcloud.DeployRequest{
		Service:      service,
		ImageTag:     imageTag,
		ProjectID:    cfg.Project.GCPProjectID,
		Region:       cfg.Project.Region,
		Memory:       cfg.CloudRun.Memory,
		CPU:          cfg.CloudRun.CPU,
		MinInstances: cfg.CloudRun.MinInstances,
		MaxInstances: cfg.CloudRun.MaxInstances,
		Concurrency:  cfg.CloudRun.Concurrency,
		Port:         cfg.CloudRun.Port,
		Secrets:      secrets,
	}
	if err := d.client.Deploy(ctx, req); err != nil {
		result.Phase, result.Err = PhaseDeploying, err
		return result
	}

	deployCtx, cancelDeploy := context.WithTimeout(ctx, cfg.Timeouts.Deploy)
	url, err := d.client.WaitForService(deployCtx, service, cfg.Project.GCPProjectID,
		cfg.Project.Region, cfg.Timeouts.PollInterval)
	cancelDeploy()
	if err != nil {
		result.Phase, result.Err = PhaseDeploying, err
		return result
	}

	result.Phase = PhaseDone
	result.ServiceURL = url
	return result
}

// dockerfile returns the ejected Dockerfile when present, a rendered one
// otherwise.
func (d *Deployer) dockerfile(dir string, cfg *config.Config, meta *manifest.Metadata) (string, error) {
	if build.IsEjected(dir) {
		d.log.Debug("using ejected Dockerfile")
		return build.LoadEjected(dir)
	}
	return build.RenderDockerfile(&cfg.Build, meta, cfg.CloudRun.Port), nil
}

// ServiceName resolves the deployed service name: the [project] name
// override when set, the manifest package name otherwise.
func ServiceName(cfg *config.Config, meta *manifest.Metadata) string {
	if cfg.Project.Name != "" {
		return cfg.Project.Name
	}
	return meta.Name
}

// ImageTag builds the deterministic Artifact Registry tag for a service.
func ImageTag(region, projectID, service string) string {
	return fmt.Sprintf("%s-docker.pkg.dev/%s/%s/%s:latest",
		region, projectID, constants.ArtifactRepoName, service)
}
