package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ynishi/propel/internal/errors"
)

type fakeClient struct {
	versionFunc        func(ctx context.Context) (string, error)
	activeAccountFunc  func(ctx context.Context) (string, error)
	describeProjectFunc func(ctx context.Context, projectID string) (string, error)
	billingEnabledFunc func(ctx context.Context, projectID string) (bool, error)
	apiEnabledFunc     func(ctx context.Context, projectID, api string) (bool, error)
}

func (f *fakeClient) Version(ctx context.Context) (string, error) {
	if f.versionFunc != nil {
		return f.versionFunc(ctx)
	}
	return "502.0.0", nil
}

func (f *fakeClient) ActiveAccount(ctx context.Context) (string, error) {
	if f.activeAccountFunc != nil {
		return f.activeAccountFunc(ctx)
	}
	return "dev@example.com", nil
}

func (f *fakeClient) DescribeProject(ctx context.Context, projectID string) (string, error) {
	if f.describeProjectFunc != nil {
		return f.describeProjectFunc(ctx, projectID)
	}
	return "My Project", nil
}

func (f *fakeClient) BillingEnabled(ctx context.Context, projectID string) (bool, error) {
	if f.billingEnabledFunc != nil {
		return f.billingEnabledFunc(ctx, projectID)
	}
	return true, nil
}

func (f *fakeClient) APIEnabled(ctx context.Context, projectID, api string) (bool, error) {
	if f.apiEnabledFunc != nil {
		return f.apiEnabledFunc(ctx, projectID, api)
	}
	return true, nil
}

func projectDirWithConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "propel.toml"),
		[]byte("[project]\ngcp_project_id = \"p1\"\n"), 0o644))
	return dir
}

// expectedOrder is the fixed report order regardless of completion order.
var expectedOrder = []string{
	"gcloud CLI",
	"Authenticated account",
	"Project",
	"Billing",
	"Cloud Build API",
	"Cloud Run API",
	"Secret Manager API",
	"Artifact Registry API",
	"Configuration file",
}

func TestRun_AllPassed(t *testing.T) {
	engine := New(&fakeClient{}, projectDirWithConfig(t))
	report := engine.Run(context.Background())

	require.Len(t, report.Checks, len(expectedOrder))
	for i, c := range report.Checks {
		assert.Equal(t, expectedOrder[i], c.Name)
		assert.Equal(t, StatusPass, c.Status, "check %s", c.Name)
	}
	assert.True(t, report.AllPassed())
}

func TestRun_ReportOrderIndependentOfCompletionOrder(t *testing.T) {
	// Stagger completion so later-defined checks finish first.
	client := &fakeClient{
		versionFunc: func(context.Context) (string, error) {
			time.Sleep(30 * time.Millisecond)
			return "502.0.0", nil
		},
		billingEnabledFunc: func(context.Context, string) (bool, error) {
			time.Sleep(15 * time.Millisecond)
			return true, nil
		},
	}

	report := New(client, projectDirWithConfig(t)).Run(context.Background())

	names := make([]string, len(report.Checks))
	for i, c := range report.Checks {
		names[i] = c.Name
	}
	assert.Equal(t, expectedOrder, names)
}

func TestRun_SingleFailureBlocksAllPassed(t *testing.T) {
	client := &fakeClient{
		billingEnabledFunc: func(context.Context, string) (bool, error) {
			return false, nil
		},
	}

	report := New(client, projectDirWithConfig(t)).Run(context.Background())

	assert.False(t, report.AllPassed())
	assert.Equal(t, StatusFail, report.Checks[3].Status)
	assert.Equal(t, "billing not enabled", report.Checks[3].Detail)

	// Checks after the failed one still ran.
	for _, c := range report.Checks[4:] {
		assert.Equal(t, StatusPass, c.Status, "check %s", c.Name)
	}
}

func TestRun_UnknownBlocksAllPassedButIsNotFail(t *testing.T) {
	client := &fakeClient{
		apiEnabledFunc: func(_ context.Context, _, api string) (bool, error) {
			if api == "run.googleapis.com" {
				return false, apperrors.ErrRemoteUnknown("network unreachable", nil)
			}
			return true, nil
		},
	}

	report := New(client, projectDirWithConfig(t)).Run(context.Background())

	assert.False(t, report.AllPassed())
	assert.Equal(t, StatusUnknown, report.Checks[5].Status)
	assert.Equal(t, "network unreachable", report.Checks[5].Detail)
}

func TestRun_MissingConfig(t *testing.T) {
	report := New(&fakeClient{}, t.TempDir()).Run(context.Background())

	byName := map[string]CheckResult{}
	for _, c := range report.Checks {
		byName[c.Name] = c
	}

	assert.Equal(t, StatusFail, byName["Configuration file"].Status)
	assert.Equal(t, StatusFail, byName["Project"].Status)
	// Project-dependent remote checks cannot be evaluated.
	assert.Equal(t, StatusUnknown, byName["Billing"].Status)
	assert.Equal(t, StatusUnknown, byName["Cloud Run API"].Status)
	assert.False(t, report.AllPassed())
}

func TestRun_GcloudMissingIsFailForCLICheck(t *testing.T) {
	client := &fakeClient{
		versionFunc: func(context.Context) (string, error) {
			return "", apperrors.ErrLaunchFailed("failed to launch gcloud", fmt.Errorf("not found"))
		},
	}

	report := New(client, projectDirWithConfig(t)).Run(context.Background())

	assert.Equal(t, StatusFail, report.Checks[0].Status)
	assert.Contains(t, report.Checks[0].Detail, "not found")
}

func TestRun_ProjectNotAccessible(t *testing.T) {
	client := &fakeClient{
		describeProjectFunc: func(context.Context, string) (string, error) {
			return "", apperrors.ErrRemoteNotFound("project p1 was not found", nil)
		},
	}

	report := New(client, projectDirWithConfig(t)).Run(context.Background())

	assert.Equal(t, StatusFail, report.Checks[2].Status)
	assert.Contains(t, report.Checks[2].Detail, "not accessible")
}
