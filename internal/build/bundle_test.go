package build

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

func TestFilterBundleFiles(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		include []string
		want    []string
	}{
		{
			name:  "empty include keeps everything enumerated",
			files: []string{"Cargo.toml", "src/main.rs", "templates/index.html"},
			want:  []string{"Cargo.toml", "src/main.rs", "templates/index.html"},
		},
		{
			name:  "always-excluded paths are dropped",
			files: []string{"Cargo.toml", ".propel-bundle/stale", ".propel/Dockerfile", ".git/config"},
			want:  []string{"Cargo.toml"},
		},
		{
			name:    "include closure keeps listed dirs recursively",
			files:   []string{"Cargo.toml", "src/main.rs", "migrations/0001.sql", "migrations/sub/0002.sql", "docs/readme.md"},
			include: []string{"migrations/"},
			want:    []string{"migrations/0001.sql", "migrations/sub/0002.sql"},
		},
		{
			name:    "include matches exact files",
			files:   []string{"Cargo.toml", "src/main.rs"},
			include: []string{"Cargo.toml"},
			want:    []string{"Cargo.toml"},
		},
		{
			name:    "include does not reintroduce excluded paths",
			files:   []string{".propel/Dockerfile", "templates/a.html"},
			include: []string{".propel/", "templates/"},
			want:    []string{"templates/a.html"},
		},
		{
			name:    "prefix match is path-segment aware",
			files:   []string{"templates-old/a.html", "templates/b.html"},
			include: []string{"templates"},
			want:    []string{"templates/b.html"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterBundleFiles(tt.files, tt.include))
		})
	}
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestAssemble(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"Cargo.toml":  "[package]\nname = \"svc\"\n",
		"src/main.rs": "fn main() {}\n",
	})

	exec := testutil.NewFakeExecutor()
	exec.Stub("git ls-files", executor.Result{Stdout: "Cargo.toml\nsrc/main.rs\n"})

	bundle, err := Assemble(context.Background(), exec, dir, "FROM scratch\n", nil)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, ".propel-bundle"), bundle.Dir)
	assert.Equal(t, []string{"Cargo.toml", "src/main.rs"}, bundle.Files)

	content, err := os.ReadFile(filepath.Join(bundle.Dir, "src", "main.rs"))
	require.NoError(t, err)
	assert.Equal(t, "fn main() {}\n", string(content))

	dockerfile, err := os.ReadFile(filepath.Join(bundle.Dir, "Dockerfile"))
	require.NoError(t, err)
	assert.Equal(t, "FROM scratch\n", string(dockerfile))
}

func TestAssemble_ReplacesStaleBundle(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"Cargo.toml":           "[package]\n",
		".propel-bundle/stale": "old",
	})

	exec := testutil.NewFakeExecutor()
	exec.Stub("git ls-files", executor.Result{Stdout: "Cargo.toml\n.propel-bundle/stale\n"})

	bundle, err := Assemble(context.Background(), exec, dir, "FROM scratch\n", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Cargo.toml"}, bundle.Files)
	_, err = os.Stat(filepath.Join(bundle.Dir, "stale"))
	assert.True(t, os.IsNotExist(err))
}

func TestAssemble_IncludeFilter(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"Cargo.toml":           "[package]\n",
		"src/main.rs":          "fn main() {}\n",
		"migrations/0001.sql":  "create table t ();\n",
		"docs/readme.md":       "docs\n",
	})

	exec := testutil.NewFakeExecutor()
	exec.Stub("git ls-files", executor.Result{
		Stdout: "Cargo.toml\nsrc/main.rs\nmigrations/0001.sql\ndocs/readme.md\n",
	})

	bundle, err := Assemble(context.Background(), exec, dir, "FROM scratch\n",
		[]string{"src/", "Cargo.toml", "migrations/"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Cargo.toml", "src/main.rs", "migrations/0001.sql"}, bundle.Files)
	_, err = os.Stat(filepath.Join(bundle.Dir, "docs", "readme.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestAssemble_FailsWhenGitUnavailable(t *testing.T) {
	exec := testutil.NewFakeExecutor()
	exec.StubLaunchError("git ls-files", apperrors.ErrLaunchFailed("failed to launch git", nil))

	_, err := Assemble(context.Background(), exec, t.TempDir(), "FROM scratch\n", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindLocalIO, apperrors.GetKind(err))
}

func TestAssemble_FailsOnEmptyEnumeration(t *testing.T) {
	exec := testutil.NewFakeExecutor()
	exec.Stub("git ls-files", executor.Result{Stdout: ""})

	_, err := Assemble(context.Background(), exec, t.TempDir(), "FROM scratch\n", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindLocalIO, apperrors.GetKind(err))
	assert.Contains(t, err.Error(), "no files to bundle")
}

func TestAssemble_FailsWhenIncludeMatchesNothing(t *testing.T) {
	exec := testutil.NewFakeExecutor()
	exec.Stub("git ls-files", executor.Result{Stdout: "Cargo.toml\n"})

	_, err := Assemble(context.Background(), exec, t.TempDir(), "FROM scratch\n",
		[]string{"nonexistent/"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindLocalIO, apperrors.GetKind(err))
}

func TestRemove(t *testing.T) {
	dir := writeTree(t, map[string]string{".propel-bundle/Dockerfile": "FROM scratch\n"})

	require.NoError(t, Remove(dir))
	_, err := os.Stat(filepath.Join(dir, ".propel-bundle"))
	assert.True(t, os.IsNotExist(err))

	// Removing an absent bundle is not an error.
	require.NoError(t, Remove(dir))
}
