// Package doctor runs the preflight readiness battery: an ordered set of
// independent checks against the local environment and the remote platform.
// Every check always runs so the operator sees every problem in one pass,
// not just the first.
package doctor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ynishi/propel/internal/config"
	"github.com/ynishi/propel/internal/constants"
	apperrors "github.com/ynishi/propel/internal/errors"
)

// Status is the outcome of a single check. Unknown means the check could
// not be evaluated (network failure, missing prerequisite), distinct from
// a definitive Fail, but both prevent AllPassed.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusUnknown Status = "unknown"
)

// CheckResult is the outcome of one doctor check.
type CheckResult struct {
	Name   string
	Status Status
	Detail string
}

// Report is the ordered sequence of check results. Ordering follows check
// definition order, never completion order.
type Report struct {
	Checks []CheckResult
}

// AllPassed reports whether every check passed.
func (r *Report) AllPassed() bool {
	for _, c := range r.Checks {
		if c.Status != StatusPass {
			return false
		}
	}
	return true
}

// Client is the slice of remote operations the doctor needs.
type Client interface {
	Version(ctx context.Context) (string, error)
	ActiveAccount(ctx context.Context) (string, error)
	DescribeProject(ctx context.Context, projectID string) (string, error)
	BillingEnabled(ctx context.Context, projectID string) (bool, error)
	APIEnabled(ctx context.Context, projectID, api string) (bool, error)
}

// Engine runs the check battery over a shared read-only client handle.
type Engine struct {
	client     Client
	projectDir string
}

// New creates a doctor engine for the given project directory.
func New(client Client, projectDir string) *Engine {
	return &Engine{client: client, projectDir: projectDir}
}

type check struct {
	name string
	run  func(ctx context.Context) CheckResult
}

// Run executes every check and returns the aggregated report. Checks run
// concurrently; report order is the definition order.
func (e *Engine) Run(ctx context.Context) *Report {
	// The project ID feeds several checks; resolve it once. A missing or
	// broken config does not stop the battery: the config check reports
	// it, and dependent checks come back Unknown.
	projectID := ""
	cfg, cfgErr := config.Load(e.projectDir)
	if cfgErr == nil {
		projectID = cfg.Project.GCPProjectID
	}

	checks := []check{
		{"gcloud CLI", e.checkCLI},
		{"Authenticated account", e.checkAccount},
		{"Project", func(ctx context.Context) CheckResult { return e.checkProject(ctx, projectID) }},
		{"Billing", func(ctx context.Context) CheckResult { return e.checkBilling(ctx, projectID) }},
	}
	for _, api := range constants.RequiredAPIs {
		api := api
		checks = append(checks, check{api.Label + " API", func(ctx context.Context) CheckResult {
			return e.checkAPI(ctx, projectID, api.Name)
		}})
	}
	checks = append(checks, check{"Configuration file", func(context.Context) CheckResult {
		return e.checkConfig(cfgErr)
	}})

	results := make([]CheckResult, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		i, c := i, c
		g.Go(func() error {
			res := c.run(gctx)
			res.Name = c.name
			results[i] = res
			return nil
		})
	}
	_ = g.Wait() // checks report through results, never through errors

	return &Report{Checks: results}
}

func (e *Engine) checkCLI(ctx context.Context) CheckResult {
	version, err := e.client.Version(ctx)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindLaunchFailed) {
			return CheckResult{Status: StatusFail,
				Detail: "gcloud CLI not found, install: https://cloud.google.com/sdk/docs/install"}
		}
		return unknown(err)
	}
	return CheckResult{Status: StatusPass, Detail: version}
}

func (e *Engine) checkAccount(ctx context.Context) CheckResult {
	account, err := e.client.ActiveAccount(ctx)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindRemoteAuth) {
			return CheckResult{Status: StatusFail, Detail: apperrors.GetDetails(err)}
		}
		return unknown(err)
	}
	if account == "" {
		return CheckResult{Status: StatusFail, Detail: "no active account, run: gcloud auth login"}
	}
	return CheckResult{Status: StatusPass, Detail: account}
}

func (e *Engine) checkProject(ctx context.Context, projectID string) CheckResult {
	if projectID == "" {
		return CheckResult{Status: StatusFail,
			Detail: "gcp_project_id not set in " + constants.ConfigFileName}
	}
	name, err := e.client.DescribeProject(ctx, projectID)
	if err != nil {
		switch apperrors.GetKind(err) {
		case apperrors.KindRemoteNotFound, apperrors.KindRemotePermission:
			return CheckResult{Status: StatusFail,
				Detail: fmt.Sprintf("%s is not accessible", projectID)}
		}
		return unknown(err)
	}
	return CheckResult{Status: StatusPass, Detail: fmt.Sprintf("%s (%s)", projectID, name)}
}

func (e *Engine) checkBilling(ctx context.Context, projectID string) CheckResult {
	if projectID == "" {
		return CheckResult{Status: StatusUnknown, Detail: "no project configured"}
	}
	enabled, err := e.client.BillingEnabled(ctx, projectID)
	if err != nil {
		return unknown(err)
	}
	if !enabled {
		return CheckResult{Status: StatusFail, Detail: "billing not enabled"}
	}
	return CheckResult{Status: StatusPass, Detail: "enabled"}
}

func (e *Engine) checkAPI(ctx context.Context, projectID, api string) CheckResult {
	if projectID == "" {
		return CheckResult{Status: StatusUnknown, Detail: "no project configured"}
	}
	enabled, err := e.client.APIEnabled(ctx, projectID, api)
	if err != nil {
		return unknown(err)
	}
	if !enabled {
		return CheckResult{Status: StatusFail,
			Detail: fmt.Sprintf("not enabled, run: gcloud services enable %s", api)}
	}
	return CheckResult{Status: StatusPass, Detail: "enabled"}
}

func (e *Engine) checkConfig(cfgErr error) CheckResult {
	switch apperrors.GetKind(cfgErr) {
	case "":
		return CheckResult{Status: StatusPass, Detail: "found"}
	case apperrors.KindConfigNotFound:
		return CheckResult{Status: StatusFail, Detail: constants.ConfigFileName + " not found"}
	default:
		return CheckResult{Status: StatusFail, Detail: apperrors.GetDetails(cfgErr)}
	}
}

func unknown(err error) CheckResult {
	return CheckResult{Status: StatusUnknown, Detail: apperrors.GetDetails(err)}
}
