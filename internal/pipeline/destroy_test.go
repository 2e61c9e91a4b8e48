package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ynishi/propel/internal/errors"
	"github.com/ynishi/propel/internal/testutil"
)

func TestDestroy_DeletesServiceImageAndBundle(t *testing.T) {
	dir := projectDir(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".propel-bundle"), 0o755))

	client := newFakeClient()
	results, err := New(testutil.NewFakeExecutor(), client).Destroy(context.Background(),
		DestroyOptions{ProjectDir: dir})

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Cloud Run service svc", results[0].Resource)
	assert.Equal(t, ResourceDeleted, results[0].Status)
	assert.Equal(t, "container image r1-docker.pkg.dev/p1/propel/svc:latest", results[1].Resource)
	assert.Equal(t, ResourceDeleted, results[1].Status)
	assert.Equal(t, "local bundle", results[2].Resource)
	assert.Equal(t, ResourceDeleted, results[2].Status)

	_, statErr := os.Stat(filepath.Join(dir, ".propel-bundle"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDestroy_MissingResourcesAreNotErrors(t *testing.T) {
	client := newFakeClient()
	client.deleteServiceErr = apperrors.ErrRemoteNotFound("service svc could not be found", nil)
	client.deleteImageErr = apperrors.ErrRemoteNotFound("image not found", nil)

	results, err := New(testutil.NewFakeExecutor(), client).Destroy(context.Background(),
		DestroyOptions{ProjectDir: projectDir(t)})

	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, ResourceNotFound, results[0].Status)
	assert.Equal(t, ResourceNotFound, results[1].Status)
	assert.Equal(t, ResourceDeleted, results[2].Status)
}

func TestDestroy_PermissionFailureHalts(t *testing.T) {
	client := newFakeClient()
	client.deleteServiceErr = apperrors.ErrRemotePermission("caller lacks run.services.delete", nil)

	results, err := New(testutil.NewFakeExecutor(), client).Destroy(context.Background(),
		DestroyOptions{ProjectDir: projectDir(t)})

	require.Error(t, err)
	assert.Equal(t, apperrors.KindRemotePermission, apperrors.GetKind(err))
	require.Len(t, results, 1)
	assert.Equal(t, ResourceFailed, results[0].Status)

	// The image deletion never ran.
	for _, call := range client.calls {
		assert.NotContains(t, call, "delete-image")
	}
}

func TestDestroy_IncludeSecrets(t *testing.T) {
	client := newFakeClient()
	client.secrets = []string{"DB_URL", "API_KEY"}

	results, err := New(testutil.NewFakeExecutor(), client).Destroy(context.Background(),
		DestroyOptions{ProjectDir: projectDir(t), IncludeSecrets: true})

	require.NoError(t, err)
	require.Len(t, results, 5)
	assert.Equal(t, "secret DB_URL", results[2].Resource)
	assert.Equal(t, "secret API_KEY", results[3].Resource)
	assert.Equal(t, "local bundle", results[4].Resource)
}

func TestDestroy_MissingProjectID(t *testing.T) {
	dir := projectDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "propel.toml"),
		[]byte("[project]\nregion = \"r1\"\n"), 0o644))

	client := newFakeClient()
	_, err := New(testutil.NewFakeExecutor(), client).Destroy(context.Background(),
		DestroyOptions{ProjectDir: dir})

	require.Error(t, err)
	assert.Equal(t, apperrors.KindLocalValidation, apperrors.GetKind(err))
	assert.Empty(t, client.calls)
}
