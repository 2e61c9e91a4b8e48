package build

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ynishi/propel/internal/constants"
	apperrors "github.com/ynishi/propel/internal/errors"
)

// ejectedDockerfile returns the path of the ejected Dockerfile in dir.
func ejectedDockerfile(dir string) string {
	return filepath.Join(dir, constants.EjectDirName, "Dockerfile")
}

// IsEjected reports whether the project carries an ejected Dockerfile.
// When it does, deploy uses the ejected file instead of rendering one.
func IsEjected(dir string) bool {
	_, err := os.Stat(ejectedDockerfile(dir))
	return err == nil
}

// Eject writes the Dockerfile into the project for manual customization.
// Refuses to overwrite an existing ejected file.
func Eject(dir, dockerfile string) error {
	path := ejectedDockerfile(dir)
	if _, err := os.Stat(path); err == nil {
		return apperrors.ErrLocalValidation(
			fmt.Sprintf("already ejected at %s, edit it directly or delete it to re-eject", path), nil)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.ErrLocalIO(
			fmt.Sprintf("failed to create %s", filepath.Dir(path)), err)
	}
	if err := os.WriteFile(path, []byte(dockerfile), 0o644); err != nil {
		return apperrors.ErrLocalIO(fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

// LoadEjected reads the ejected Dockerfile.
func LoadEjected(dir string) (string, error) {
	path := ejectedDockerfile(dir)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", apperrors.ErrLocalIO(
			fmt.Sprintf("failed to read ejected Dockerfile at %s", path), err)
	}
	return string(content), nil
}
