// Package config manages the project-relative propel.toml configuration.
// It uses Viper for decoding and go-playground/validator for validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/ynishi/propel/internal/constants"
	apperrors "github.com/ynishi/propel/internal/errors"
)

// Config is the decoded propel.toml. It is immutable after Load; every
// component receives it by value or pointer and never mutates it.
type Config struct {
	Project  ProjectConfig  `mapstructure:"project"`
	Build    BuildConfig    `mapstructure:"build"`
	CloudRun CloudRunConfig `mapstructure:"cloud_run"`
	Timeouts TimeoutConfig  `mapstructure:"timeouts"`
}

// ProjectConfig is the [project] section: target project identity and region.
type ProjectConfig struct {
	// Name overrides the service name derived from the manifest.
	Name string `mapstructure:"name"`
	// Region is the deployment region.
	Region string `mapstructure:"region" validate:"required"`
	// GCPProjectID is the target platform project. Required before any
	// remote operation; validated by the pipeline, not here, so doctor
	// can report on a config that lacks it.
	GCPProjectID string `mapstructure:"gcp_project_id"`
}

// BuildConfig is the [build] section: image generation parameters.
type BuildConfig struct {
	BaseImage        string            `mapstructure:"base_image" validate:"required"`
	RuntimeImage     string            `mapstructure:"runtime_image" validate:"required"`
	ExtraPackages    []string          `mapstructure:"extra_packages"`
	CargoChefVersion string            `mapstructure:"cargo_chef_version" validate:"required"`
	// Include restricts the bundle and the runtime image to the listed
	// paths (recursively). Empty means everything.
	Include []string          `mapstructure:"include"`
	Env     map[string]string `mapstructure:"env"`
}

// CloudRunConfig is the [cloud_run] section: service resource sizing.
type CloudRunConfig struct {
	Memory       string `mapstructure:"memory" validate:"required"`
	CPU          int    `mapstructure:"cpu" validate:"gte=1"`
	MinInstances int    `mapstructure:"min_instances" validate:"gte=0"`
	MaxInstances int    `mapstructure:"max_instances" validate:"gte=1"`
	Concurrency  int    `mapstructure:"concurrency" validate:"gte=1"`
	Port         int    `mapstructure:"port" validate:"gt=0,lte=65535"`
}

// TimeoutConfig is the [timeouts] section: poll pacing for remote waits.
type TimeoutConfig struct {
	Build        time.Duration `mapstructure:"build"`
	Deploy       time.Duration `mapstructure:"deploy"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

var validate = validator.New()

// Load reads and validates propel.toml from the given project directory.
// A missing file and a malformed file are distinct error kinds so callers
// (doctor vs deploy) can treat them differently.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, constants.ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.ErrConfigNotFound(
			fmt.Sprintf("%s not found in %s", constants.ConfigFileName, dir), err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.ErrConfigInvalid(
			fmt.Sprintf("failed to parse %s", path), err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperrors.ErrConfigInvalid(
			fmt.Sprintf("failed to decode %s", path), err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, apperrors.ErrConfigInvalid(
			fmt.Sprintf("invalid configuration in %s", path), err)
	}

	return &cfg, nil
}

// Exists reports whether propel.toml is present in dir.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, constants.ConfigFileName))
	return err == nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("project.region", "us-central1")
	v.SetDefault("build.base_image", "rust:1.84-bookworm")
	v.SetDefault("build.runtime_image", "gcr.io/distroless/cc-debian12")
	v.SetDefault("build.cargo_chef_version", "0.1.68")
	v.SetDefault("cloud_run.memory", "512Mi")
	v.SetDefault("cloud_run.cpu", 1)
	v.SetDefault("cloud_run.min_instances", 0)
	v.SetDefault("cloud_run.max_instances", 10)
	v.SetDefault("cloud_run.concurrency", 80)
	v.SetDefault("cloud_run.port", 8080)
	v.SetDefault("timeouts.build", constants.DefaultBuildTimeout)
	v.SetDefault("timeouts.deploy", constants.DefaultDeployTimeout)
	v.SetDefault("timeouts.poll_interval", constants.DefaultPollInterval)
}
