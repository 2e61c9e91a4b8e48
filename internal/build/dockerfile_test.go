package build

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ynishi/propel/internal/config"
	"github.com/ynishi/propel/internal/manifest"
)

func buildConfig() *config.BuildConfig {
	return &config.BuildConfig{
		BaseImage:        "rust:1.84-bookworm",
		RuntimeImage:     "gcr.io/distroless/cc-debian12",
		CargoChefVersion: "0.1.68",
	}
}

func meta() *manifest.Metadata {
	return &manifest.Metadata{Name: "svc", Version: "0.1.0", BinaryName: "svc"}
}

func TestRenderDockerfile_Deterministic(t *testing.T) {
	cfg := buildConfig()
	cfg.Env = map[string]string{
		"TEMPLATE_DIR": "/app/templates",
		"ASSET_DIR":    "/app/assets",
		"LOCALE":       "C.UTF-8",
	}
	cfg.Include = []string{"templates/", "assets/"}

	first := RenderDockerfile(cfg, meta(), 8080)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, RenderDockerfile(cfg, meta(), 8080),
			"rendering must be byte-identical across invocations")
	}
}

func TestRenderDockerfile_Stages(t *testing.T) {
	out := RenderDockerfile(buildConfig(), meta(), 8080)

	assert.Contains(t, out, "FROM rust:1.84-bookworm AS chef")
	assert.Contains(t, out, "cargo install cargo-chef --version 0.1.68")
	assert.Contains(t, out, "FROM chef AS planner")
	assert.Contains(t, out, "cargo chef prepare --recipe-path recipe.json")
	assert.Contains(t, out, "FROM chef AS cacher")
	assert.Contains(t, out, "cargo chef cook --release")
	assert.Contains(t, out, "FROM chef AS builder")
	assert.Contains(t, out, "cargo build --release --bin svc")
	assert.Contains(t, out, "FROM gcr.io/distroless/cc-debian12")
	assert.Contains(t, out, "COPY --from=builder /app/target/release/svc /usr/local/bin/app")
	assert.Contains(t, out, "EXPOSE 8080")
	assert.Contains(t, out, `CMD ["app"]`)

	// Stage ordering is fixed.
	planner := strings.Index(out, "AS planner")
	cacher := strings.Index(out, "AS cacher")
	builder := strings.Index(out, "AS builder")
	runtime := strings.Index(out, "FROM gcr.io/distroless/cc-debian12")
	assert.True(t, planner < cacher && cacher < builder && builder < runtime)
}

func TestRenderDockerfile_ExtraPackages(t *testing.T) {
	cfg := buildConfig()
	cfg.ExtraPackages = []string{"libpq-dev", "pkg-config"}

	out := RenderDockerfile(cfg, meta(), 8080)
	assert.Contains(t, out, "apt-get install -y libpq-dev pkg-config")
}

func TestRenderDockerfile_NoExtraPackages(t *testing.T) {
	out := RenderDockerfile(buildConfig(), meta(), 8080)
	assert.NotContains(t, out, "apt-get")
}

func TestRenderDockerfile_IncludeAndEnvSorted(t *testing.T) {
	cfg := buildConfig()
	cfg.Include = []string{"templates/", "migrations/"}
	cfg.Env = map[string]string{"B_VAR": "2", "A_VAR": "1"}

	out := RenderDockerfile(cfg, meta(), 9090)

	migrations := strings.Index(out, "COPY migrations/ migrations/")
	templates := strings.Index(out, "COPY templates/ templates/")
	assert.True(t, migrations >= 0 && templates >= 0 && migrations < templates)

	aVar := strings.Index(out, "ENV A_VAR=1")
	bVar := strings.Index(out, "ENV B_VAR=2")
	assert.True(t, aVar >= 0 && bVar >= 0 && aVar < bVar)

	assert.Contains(t, out, "EXPOSE 9090")
}

func TestRenderDockerfile_BinaryFromManifest(t *testing.T) {
	m := meta()
	m.BinaryName = "server"

	out := RenderDockerfile(buildConfig(), m, 8080)
	assert.Contains(t, out, "cargo build --release --bin server")
	assert.Contains(t, out, "/app/target/release/server /usr/local/bin/app")
}

func TestRenderDockerfile_PortChangesOutput(t *testing.T) {
	a := RenderDockerfile(buildConfig(), meta(), 8080)
	b := RenderDockerfile(buildConfig(), meta(), 3000)
	assert.NotEqual(t, a, b)
}
