// Package git answers the two questions propel asks about the working
// tree: is it dirty, and which files belong to the bundle. Both go through
// the executor seam so pipeline tests can script them.
package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ynishi/propel/internal/constants"
	apperrors "github.com/ynishi/propel/internal/errors"
	"github.com/ynishi/propel/internal/executor"
)

// IsRepository checks if the specified directory is a Git repository
func IsRepository(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsDirty reports whether the working tree has uncommitted changes.
func IsDirty(ctx context.Context, exec executor.Executor, dir string) (bool, error) {
	res, err := exec.Run(ctx, constants.GitBinary, []string{"status", "--porcelain"},
		executor.Options{Dir: dir})
	if err != nil {
		return false, apperrors.ErrLocalIO("git is not available", err)
	}
	if !res.Success() {
		return false, apperrors.ErrLocalIO(
			"git status failed: "+strings.TrimSpace(res.Stderr), nil)
	}
	return strings.TrimSpace(res.Stdout) != "", nil
}

// ListFiles enumerates the bundle candidates: tracked files plus untracked
// files not covered by ignore rules, relative to dir.
func ListFiles(ctx context.Context, exec executor.Executor, dir string) ([]string, error) {
	res, err := exec.Run(ctx, constants.GitBinary,
		[]string{"ls-files", "--cached", "--others", "--exclude-standard"},
		executor.Options{Dir: dir})
	if err != nil {
		return nil, apperrors.ErrLocalIO("git is not available", err)
	}
	if !res.Success() {
		return nil, apperrors.ErrLocalIO(
			"git ls-files failed: "+strings.TrimSpace(res.Stderr), nil)
	}

	var files []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}
