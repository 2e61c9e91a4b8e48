package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ynishi/propel/internal/errors"
	"github.com/ynishi/propel/internal/executor"
	"github.com/ynishi/propel/internal/testutil"
)

func TestIsRepository(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsRepository(dir))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))
	assert.True(t, IsRepository(dir))
}

func TestIsRepository_GitFileIsNotARepo(t *testing.T) {
	// A .git file (worktree pointer) is not treated as a repository root.
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: ../x\n"), 0o644))
	assert.False(t, IsRepository(dir))
}

func TestIsDirty(t *testing.T) {
	exec := testutil.NewFakeExecutor()
	exec.Stub("git status", executor.Result{Stdout: " M main.rs\n"})

	dirty, err := IsDirty(context.Background(), exec, ".")
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestIsDirty_CleanTree(t *testing.T) {
	exec := testutil.NewFakeExecutor()
	exec.Stub("git status", executor.Result{Stdout: "\n"})

	dirty, err := IsDirty(context.Background(), exec, ".")
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestIsDirty_GitUnavailable(t *testing.T) {
	exec := testutil.NewFakeExecutor()
	exec.StubLaunchError("git status", apperrors.ErrLaunchFailed("failed to launch git", nil))

	_, err := IsDirty(context.Background(), exec, ".")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindLocalIO, apperrors.GetKind(err))
}

func TestListFiles(t *testing.T) {
	exec := testutil.NewFakeExecutor()
	exec.Stub("git ls-files", executor.Result{Stdout: "Cargo.toml\nsrc/main.rs\n\n"})

	files, err := ListFiles(context.Background(), exec, ".")
	require.NoError(t, err)
	assert.Equal(t, []string{"Cargo.toml", "src/main.rs"}, files)

	calls := exec.CommandLines()
	require.Len(t, calls, 1)
	assert.Equal(t, "git ls-files --cached --others --exclude-standard", calls[0])
}

func TestListFiles_CommandFailure(t *testing.T) {
	exec := testutil.NewFakeExecutor()
	exec.StubFailure("git ls-files", "fatal: not a git repository")

	_, err := ListFiles(context.Background(), exec, ".")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindLocalIO, apperrors.GetKind(err))
}
