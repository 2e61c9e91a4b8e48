package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ynishi/propel/internal/constants"
	apperrors "github.com/ynishi/propel/internal/errors"
	"github.com/ynishi/propel/internal/executor"
	"github.com/ynishi/propel/internal/git"
)

// alwaysExcluded paths never enter the bundle, whatever git reports.
var alwaysExcluded = []string{
	constants.BundleDirName,
	constants.EjectDirName,
	".git",
}

// Bundle is the assembled build context on disk.
type Bundle struct {
	// Dir is the bundle directory, project-relative.
	Dir string
	// Files are the bundled paths, relative to the project root, in
	// enumeration order.
	Files []string
}

// Assemble enumerates the version-controlled file set, applies the include
// filter, and materializes the bundle directory with the rendered Dockerfile.
// It fails fast when enumeration is unavailable or yields nothing; an empty
// bundle is never submitted silently.
func Assemble(ctx context.Context, exec executor.Executor, projectDir, dockerfile string, include []string) (*Bundle, error) {
	files, err := git.ListFiles(ctx, exec, projectDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperrors.ErrLocalIO(
			"no files to bundle: the working tree has no tracked or unignored files", nil)
	}

	files = FilterBundleFiles(files, include)
	if len(files) == 0 {
		return nil, apperrors.ErrLocalIO(
			"no files to bundle: the include list matches nothing in the working tree", nil)
	}

	bundleDir := filepath.Join(projectDir, constants.BundleDirName)

	// Clean previous bundle
	if err := os.RemoveAll(bundleDir); err != nil {
		return nil, apperrors.ErrLocalIO(
			fmt.Sprintf("failed to clean up bundle directory %s", bundleDir), err)
	}
	if err := os.MkdirAll(bundleDir, 0o755); err != nil {
		return nil, apperrors.ErrLocalIO(
			fmt.Sprintf("failed to create bundle directory %s", bundleDir), err)
	}

	for _, rel := range files {
		if err := copyFile(filepath.Join(projectDir, rel), filepath.Join(bundleDir, rel)); err != nil {
			return nil, err
		}
	}

	dockerfilePath := filepath.Join(bundleDir, "Dockerfile")
	if err := os.WriteFile(dockerfilePath, []byte(dockerfile), 0o644); err != nil {
		return nil, apperrors.ErrLocalIO(
			fmt.Sprintf("failed to write Dockerfile at %s", dockerfilePath), err)
	}

	return &Bundle{Dir: bundleDir, Files: files}, nil
}

// FilterBundleFiles composes the two bundle filters: the always-excluded
// paths are removed, and when include is non-empty only paths inside the
// recursive closure of the listed entries survive. The filters compose; the
// include list never reintroduces an excluded path.
func FilterBundleFiles(files, include []string) []string {
	var out []string
	for _, f := range files {
		if isExcluded(f) {
			continue
		}
		if len(include) > 0 && !inClosure(f, include) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isExcluded(path string) bool {
	for _, ex := range alwaysExcluded {
		if path == ex || strings.HasPrefix(path, ex+"/") {
			return true
		}
	}
	return false
}

// inClosure reports whether path is one of the listed entries or lies under
// a listed directory.
func inClosure(path string, include []string) bool {
	for _, inc := range include {
		inc = strings.TrimSuffix(inc, "/")
		if inc == "" {
			continue
		}
		if path == inc || strings.HasPrefix(path, inc+"/") {
			return true
		}
	}
	return false
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return apperrors.ErrLocalIO(
			fmt.Sprintf("failed to create directory %s", filepath.Dir(dst)), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return apperrors.ErrLocalIO(fmt.Sprintf("failed to read %s", src), err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return apperrors.ErrLocalIO(fmt.Sprintf("failed to stat %s", src), err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return apperrors.ErrLocalIO(fmt.Sprintf("failed to create %s", dst), err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return apperrors.ErrLocalIO(fmt.Sprintf("failed to copy %s", src), err)
	}
	return out.Close()
}

// Remove deletes the local bundle directory. Missing is not an error.
func Remove(projectDir string) error {
	bundleDir := filepath.Join(projectDir, constants.BundleDirName)
	if _, err := os.Stat(bundleDir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(bundleDir); err != nil {
		return apperrors.ErrLocalIO(
			fmt.Sprintf("failed to remove %s", bundleDir), err)
	}
	return nil
}
