package pipeline

import (
	"context"

	"github.com/ynishi/propel/internal/build"
	"github.com/ynishi/propel/internal/config"
	"github.com/ynishi/propel/internal/constants"
	apperrors "github.com/ynishi/propel/internal/errors"
	"github.com/ynishi/propel/internal/manifest"
)

// ResourceStatus is the per-resource outcome of a destroy run.
type ResourceStatus string

const (
	ResourceDeleted  ResourceStatus = "deleted"
	ResourceNotFound ResourceStatus = "not found"
	ResourceFailed   ResourceStatus = "failed"
)

// ResourceResult records what happened to one resource during destroy.
type ResourceResult struct {
	Resource string
	Status   ResourceStatus
	Err      error
}

// DestroyOptions parameterize a destroy run.
type DestroyOptions struct {
	ProjectDir string
	// IncludeSecrets also deletes the project's secrets.
	IncludeSecrets bool
	// Progress, when set, is called after each resource is handled.
	Progress func(ResourceResult)
}

// Destroy tears down the deployed resources in order: the Cloud Run
// service, the container image, optionally the secrets, and the local
// bundle directory. A missing resource counts as success; any other
// failure halts the sequence so the operator sees a consistent state.
func (d *Deployer) Destroy(ctx context.Context, opts DestroyOptions) ([]ResourceResult, error) {
	progress := opts.Progress
	if progress == nil {
		progress = func(ResourceResult) {}
	}

	cfg, err := config.Load(opts.ProjectDir)
	if err != nil {
		return nil, err
	}
	meta, err := manifest.Load(opts.ProjectDir)
	if err != nil {
		return nil, err
	}
	if cfg.Project.GCPProjectID == "" {
		return nil, apperrors.ErrLocalValidation(
			"gcp_project_id is not set in "+constants.ConfigFileName, nil)
	}

	service := ServiceName(cfg, meta)
	imageTag := ImageTag(cfg.Project.Region, cfg.Project.GCPProjectID, service)

	var results []ResourceResult
	record := func(r ResourceResult) {
		results = append(results, r)
		progress(r)
	}

	r := resourceResult("Cloud Run service "+service,
		d.client.DeleteService(ctx, service, cfg.Project.GCPProjectID, cfg.Project.Region))
	record(r)
	if r.Status == ResourceFailed {
		return results, r.Err
	}

	r = resourceResult("container image "+imageTag,
		d.client.DeleteImage(ctx, imageTag, cfg.Project.GCPProjectID))
	record(r)
	if r.Status == ResourceFailed {
		return results, r.Err
	}

	if opts.IncludeSecrets {
		names, err := d.client.ListSecrets(ctx, cfg.Project.GCPProjectID)
		if err != nil {
			r = ResourceResult{Resource: "secrets", Status: ResourceFailed, Err: err}
			record(r)
			return results, err
		}
		for _, name := range names {
			r = resourceResult("secret "+name,
				d.client.DeleteSecret(ctx, cfg.Project.GCPProjectID, name))
			record(r)
			if r.Status == ResourceFailed {
				return results, r.Err
			}
		}
	}

	r = resourceResult("local bundle", build.Remove(opts.ProjectDir))
	record(r)
	if r.Status == ResourceFailed {
		return results, r.Err
	}

	return results, nil
}

// resourceResult maps a deletion error to the per-resource outcome. A nil
// error is deleted, a remote not-found counts as already gone, anything
// else is a failure.
func resourceResult(resource string, err error) ResourceResult {
	switch {
	case err == nil:
		return ResourceResult{Resource: resource, Status: ResourceDeleted}
	case apperrors.IsKind(err, apperrors.KindRemoteNotFound):
		return ResourceResult{Resource: resource, Status: ResourceNotFound}
	default:
		return ResourceResult{Resource: resource, Status: ResourceFailed, Err: err}
	}
}
