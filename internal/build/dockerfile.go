// Package build generates the deployable artifacts: the multi-stage
// Dockerfile and the source bundle submitted as remote build context.
package build

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ynishi/propel/internal/config"
	"github.com/ynishi/propel/internal/manifest"
)

// RenderDockerfile produces the four-stage image definition. It is a pure
// function of its inputs: identical configuration, metadata, and port always
// yield byte-identical output, which the remote build cache depends on.
//
// Stage layout is fixed: planner extracts the dependency recipe, cacher
// compiles dependencies alone (reusable across source-only changes), builder
// compiles the binary, runtime carries only the binary plus the configured
// include paths.
func RenderDockerfile(cfg *config.BuildConfig, meta *manifest.Metadata, port int) string {
	var b strings.Builder

	extraPackages := ""
	if len(cfg.ExtraPackages) > 0 {
		extraPackages = fmt.Sprintf(
			"RUN apt-get update && apt-get install -y %s && rm -rf /var/lib/apt/lists/*\n",
			strings.Join(cfg.ExtraPackages, " "))
	}

	fmt.Fprintf(&b, `# === Base: cargo-chef installed once ===
FROM %s AS chef
RUN cargo install cargo-chef --version %s --locked
WORKDIR /app

# === Stage 1: Planner ===
FROM chef AS planner
COPY . .
RUN cargo chef prepare --recipe-path recipe.json

# === Stage 2: Cacher (dependency build) ===
FROM chef AS cacher
%sCOPY --from=planner /app/recipe.json recipe.json
RUN cargo chef cook --release --recipe-path recipe.json

# === Stage 3: Builder ===
FROM chef AS builder
%sCOPY --from=cacher /app/target target
COPY --from=cacher /usr/local/cargo /usr/local/cargo
COPY . .
RUN cargo build --release --bin %s

# === Stage 4: Runtime ===
FROM %s
WORKDIR /app
COPY --from=builder /app/target/release/%s /usr/local/bin/app
`,
		cfg.BaseImage, cfg.CargoChefVersion,
		extraPackages, extraPackages,
		meta.BinaryName,
		cfg.RuntimeImage, meta.BinaryName)

	// Runtime content beyond the binary: explicitly included paths only.
	for _, p := range sortedPaths(cfg.Include) {
		fmt.Fprintf(&b, "COPY %s %s\n", p, p)
	}

	for _, k := range sortedKeys(cfg.Env) {
		fmt.Fprintf(&b, "ENV %s=%s\n", k, cfg.Env[k])
	}

	fmt.Fprintf(&b, "EXPOSE %d\nCMD [\"app\"]\n", port)

	return b.String()
}

func sortedPaths(paths []string) []string {
	out := make([]string, len(paths))
	copy(out, paths)
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
