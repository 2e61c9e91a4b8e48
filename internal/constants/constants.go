// Package constants defines global constants used throughout propel:
// resource names, required APIs, and polling defaults.
package constants

import "time"

var version = "0.0.0-development" // Updated by CI/CD pipeline at build time

// GetVersion returns the current version of propel.
func GetVersion() string {
	return version
}

// ProjectName is the name of the CLI tool.
const ProjectName = "propel"

// ConfigFileName is the project-relative configuration file.
const ConfigFileName = "propel.toml"

// ManifestFileName is the build manifest propel reads metadata from.
const ManifestFileName = "Cargo.toml"

// BundleDirName is the local directory the build context is assembled into.
const BundleDirName = ".propel-bundle"

// EjectDirName is the directory holding an ejected Dockerfile.
const EjectDirName = ".propel"

// ArtifactRepoName is the Artifact Registry repository used for images.
const ArtifactRepoName = "propel"

// GcloudBinary is the external CLI every remote operation goes through.
const GcloudBinary = "gcloud"

// GitBinary is used for dirty checks and bundle enumeration.
const GitBinary = "git"

// RequiredAPIs lists the services that must be enabled on the target
// project, in doctor report order.
var RequiredAPIs = []struct {
	Label string
	Name  string
}{
	{"Cloud Build", "cloudbuild.googleapis.com"},
	{"Cloud Run", "run.googleapis.com"},
	{"Secret Manager", "secretmanager.googleapis.com"},
	{"Artifact Registry", "artifactregistry.googleapis.com"},
}

// Polling defaults. Conservative fixed values; overridable in propel.toml.
const (
	DefaultPollInterval  = 5 * time.Second
	DefaultBuildTimeout  = 20 * time.Minute
	DefaultDeployTimeout = 5 * time.Minute
)

// Cloud Build terminal statuses as reported by `gcloud builds describe`.
const (
	BuildStatusSuccess   = "SUCCESS"
	BuildStatusFailure   = "FAILURE"
	BuildStatusCancelled = "CANCELLED"
	BuildStatusTimeout   = "TIMEOUT"
	BuildStatusExpired   = "EXPIRED"
)

// IsTerminalBuildStatus reports whether a Cloud Build status is terminal.
func IsTerminalBuildStatus(status string) bool {
	switch status {
	case BuildStatusSuccess, BuildStatusFailure, BuildStatusCancelled, BuildStatusTimeout, BuildStatusExpired:
		return true
	}
	return false
}
