// Package scaffold creates new projects and initializes existing ones with
// the files propel needs: the service source skeleton and propel.toml.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ynishi/propel/internal/constants"
	apperrors "github.com/ynishi/propel/internal/errors"
)

const cargoTomlTemplate = `[package]
name = "%s"
version = "0.1.0"
edition = "2024"

[dependencies]
axum = "0.8"
tokio = { version = "1", features = ["full"] }
tracing = "0.1"
tracing-subscriber = "0.3"
`

const mainRsTemplate = `use axum::{routing::get, Router};

async fn health() -> &'static str {
    "ok"
}

async fn hello() -> &'static str {
    "Hello from %s!"
}

#[tokio::main]
async fn main() {
    tracing_subscriber::fmt::init();

    let app = Router::new()
        .route("/health", get(health))
        .route("/", get(hello));

    let port = std::env::var("PORT").unwrap_or_else(|_| "8080".to_string());
    let listener = tokio::net::TcpListener::bind(format!("0.0.0.0:{port}"))
        .await
        .expect("failed to bind");

    tracing::info!("listening on {}", listener.local_addr().unwrap());
    axum::serve(listener, app).await.unwrap();
}
`

const propelTomlTemplate = `[project]
# region = "us-central1"
# gcp_project_id = "your-project-id"

[build]
# extra_packages = []

[cloud_run]
# memory = "512Mi"
# cpu = 1
# max_instances = 10
`

const gitignoreTemplate = "/target\n.env\n.propel-bundle/\n"

// NewProject scaffolds a fresh project at the given path. The package
// name is the path's base name. Refuses to touch an existing directory.
func NewProject(path string) error {
	if _, err := os.Stat(path); err == nil {
		return apperrors.ErrLocalValidation(
			fmt.Sprintf("directory %q already exists", path), nil)
	}

	if err := os.MkdirAll(filepath.Join(path, "src"), 0o755); err != nil {
		return apperrors.ErrLocalIO("failed to create project directory", err)
	}

	name := filepath.Base(path)
	files := map[string]string{
		constants.ManifestFileName:      fmt.Sprintf(cargoTomlTemplate, name),
		filepath.Join("src", "main.rs"): fmt.Sprintf(mainRsTemplate, name),
		constants.ConfigFileName:        propelTomlTemplate,
		".gitignore":                    gitignoreTemplate,
	}
	for rel, content := range files {
		fp := filepath.Join(path, rel)
		if err := os.WriteFile(fp, []byte(content), 0o644); err != nil {
			return apperrors.ErrLocalIO("failed to write "+fp, err)
		}
	}
	return nil
}

// Init drops propel.toml into an existing project. Returns the created
// file names; an already-present file is skipped, not overwritten.
func Init(dir string) ([]string, error) {
	if _, err := os.Stat(filepath.Join(dir, constants.ManifestFileName)); err != nil {
		return nil, apperrors.ErrLocalValidation(
			constants.ManifestFileName+" not found, run this from the project root", err)
	}

	var created []string
	configPath := filepath.Join(dir, constants.ConfigFileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.WriteFile(configPath, []byte(propelTomlTemplate), 0o644); err != nil {
			return nil, apperrors.ErrLocalIO("failed to write "+configPath, err)
		}
		created = append(created, constants.ConfigFileName)
	}
	return created, nil
}
