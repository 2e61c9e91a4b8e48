// Package testutil provides shared test helpers: a scriptable fake
// executor and error-kind assertions.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/ynishi/propel/internal/executor"
)

// Call records one invocation of the fake executor.
type Call struct {
	Command string
	Args    []string
	Opts    executor.Options
}

// Line returns the invocation as a single command line for matching.
func (c Call) Line() string {
	return strings.Join(append([]string{c.Command}, c.Args...), " ")
}

type stub struct {
	prefix  string
	result  executor.Result
	err     error
	results []executor.Result // sequence; consumed one per match, last repeats
}

// FakeExecutor is a scriptable executor.Executor for tests. Responses are
// matched by command-line prefix in registration order; unmatched commands
// succeed with empty output.
type FakeExecutor struct {
	mu    sync.Mutex
	calls []Call
	stubs []stub
}

// NewFakeExecutor returns an empty fake executor.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{}
}

// Stub registers a Result for command lines starting with prefix.
// Example: f.Stub("gcloud builds describe", executor.Result{Stdout: "SUCCESS\n"})
func (f *FakeExecutor) Stub(prefix string, result executor.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stubs = append(f.stubs, stub{prefix: prefix, result: result})
}

// StubFailure registers a nonzero exit with the given stderr.
func (f *FakeExecutor) StubFailure(prefix, stderr string) {
	f.Stub(prefix, executor.Result{ExitCode: 1, Stderr: stderr})
}

// StubSequence registers a sequence of Results for command lines starting
// with prefix. Each match consumes one entry; the last entry repeats.
func (f *FakeExecutor) StubSequence(prefix string, results ...executor.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stubs = append(f.stubs, stub{prefix: prefix, results: results})
}

// StubLaunchError registers a launch failure (binary missing) for prefix.
func (f *FakeExecutor) StubLaunchError(prefix string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stubs = append(f.stubs, stub{prefix: prefix, err: err})
}

// Run implements executor.Executor.
func (f *FakeExecutor) Run(_ context.Context, command string, args []string, opts executor.Options) (executor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	call := Call{Command: command, Args: args, Opts: opts}
	f.calls = append(f.calls, call)

	line := call.Line()
	for i := range f.stubs {
		s := &f.stubs[i]
		if !strings.HasPrefix(line, s.prefix) {
			continue
		}
		if s.err != nil {
			return executor.Result{}, s.err
		}
		if len(s.results) > 0 {
			res := s.results[0]
			if len(s.results) > 1 {
				s.results = s.results[1:]
			}
			return res, nil
		}
		return s.result, nil
	}
	return executor.Result{}, nil
}

// Calls returns a copy of all recorded invocations.
func (f *FakeExecutor) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns the number of recorded invocations.
func (f *FakeExecutor) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// CommandLines returns every recorded invocation as a command line.
func (f *FakeExecutor) CommandLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.Line()
	}
	return lines
}

// CalledWithPrefix reports whether any recorded command line starts with prefix.
func (f *FakeExecutor) CalledWithPrefix(prefix string) bool {
	for _, line := range f.CommandLines() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
