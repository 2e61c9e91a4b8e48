// Package manifest extracts project metadata from the build manifest
// (Cargo.toml). The metadata names every remote resource deterministically:
// same project, same image tag, same service name.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ynishi/propel/internal/constants"
	apperrors "github.com/ynishi/propel/internal/errors"
)

// Metadata is the read-only view of the build manifest.
type Metadata struct {
	// Name is the package name and the default service name.
	Name string
	// Version is the declared package version.
	Version string
	// BinaryName is the entry point compiled in the build stage:
	// the first [[bin]] entry, or the package name.
	BinaryName string
}

type cargoManifest struct {
	Package struct {
		Name    string `mapstructure:"name"`
		Version string `mapstructure:"version"`
	} `mapstructure:"package"`
	Bin []struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"bin"`
}

// Load reads Cargo.toml from the project directory.
func Load(dir string) (*Metadata, error) {
	path := filepath.Join(dir, constants.ManifestFileName)
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.ErrManifestInvalid(
			fmt.Sprintf("%s not found in %s", constants.ManifestFileName, dir), err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.ErrManifestInvalid(
			fmt.Sprintf("failed to parse %s", path), err)
	}

	var m cargoManifest
	if err := v.Unmarshal(&m); err != nil {
		return nil, apperrors.ErrManifestInvalid(
			fmt.Sprintf("failed to decode %s", path), err)
	}

	if m.Package.Name == "" {
		return nil, apperrors.ErrManifestInvalid(
			fmt.Sprintf("missing package.name in %s", path), nil)
	}

	version := m.Package.Version
	if version == "" {
		version = "0.1.0"
	}

	binary := m.Package.Name
	if len(m.Bin) > 0 && m.Bin[0].Name != "" {
		binary = m.Bin[0].Name
	}

	return &Metadata{
		Name:       m.Package.Name,
		Version:    version,
		BinaryName: binary,
	}, nil
}
