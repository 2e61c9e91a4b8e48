// Package executor provides the single seam between propel and external
// commands. Everything that shells out (gcloud, git) goes through the
// Executor interface so the orchestration logic can be tested against a fake.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	apperrors "github.com/ynishi/propel/internal/errors"
)

// Options controls how a command is executed.
type Options struct {
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is an environment overlay appended to the inherited environment,
	// entries in KEY=VALUE form.
	Env []string
	// Stdin is piped to the process when non-nil.
	Stdin []byte
	// Stream connects stdout/stderr to the terminal instead of capturing
	// them. Used for long build logs and log tailing.
	Stream bool
}

// Result is the captured outcome of a completed command.
// A nonzero ExitCode is a normal Result, not a Go error.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports whether the command exited zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Executor runs external commands. The returned error is non-nil only when
// the process could not be launched at all (binary missing, permission
// denied); command failures are reported through Result.ExitCode.
type Executor interface {
	Run(ctx context.Context, command string, args []string, opts Options) (Result, error)
}

// osExecutor is the production Executor backed by os/exec.
type osExecutor struct{}

// New returns the production executor.
func New() Executor {
	return &osExecutor{}
}

func (e *osExecutor) Run(ctx context.Context, command string, args []string, opts Options) (Result, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}
	if opts.Stdin != nil {
		cmd.Stdin = bytes.NewReader(opts.Stdin)
	}

	var stdout, stderr bytes.Buffer
	if opts.Stream {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The process never started.
			return Result{}, apperrors.ErrLaunchFailed(
				fmt.Sprintf("failed to launch %s %s", command, strings.Join(args, " ")), err)
		}
	}

	return Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}
