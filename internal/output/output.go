// Package output provides formatted terminal output utilities for the
// propel CLI: colors, step markers, and key/value rendering.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	// Colors and styles
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	gray   = color.New(color.FgHiBlack)
	bold   = color.New(color.Bold)

	// Stdout is the output writer for normal output (can be overridden for testing).
	Stdout io.Writer = os.Stdout
	// Stderr is the output writer for progress and error output (can be overridden for testing).
	Stderr io.Writer = os.Stderr

	// Disable colors if not TTY or NO_COLOR is set
	noColor = func() bool {
		disable := os.Getenv("NO_COLOR") != "" || !isTerminal(os.Stdout)
		if disable {
			color.NoColor = true
		}
		return disable
	}()
)

// Successf prints a success message with a checkmark (to stderr)
// Example: ✓ Deployed: https://svc-xyz.a.run.app
func Successf(format string, a ...any) {
	_, _ = fmt.Fprintf(Stderr, green.Sprint("✓")+" "+format+"\n", a...)
}

// Infof prints an informational message with an arrow (to stderr)
// Example: → Submitting build to Cloud Build...
func Infof(format string, a ...any) {
	_, _ = fmt.Fprintf(Stderr, cyan.Sprint("→")+" "+format+"\n", a...)
}

// Warningf prints a warning message with a warning symbol (to stderr)
// Example: ⚠ could not list secrets, deploying without secret injection
func Warningf(format string, a ...any) {
	_, _ = fmt.Fprintf(Stderr, yellow.Sprint("⚠")+" "+format+"\n", a...)
}

// Errorf prints an error message with an X symbol (to stderr)
// Example: ✗ build failed: quota exceeded
func Errorf(format string, a ...any) {
	_, _ = fmt.Fprintf(Stderr, red.Sprint("✗")+" "+format+"\n", a...)
}

// Step prints a step in a multi-step process (to stderr)
// Example: [2/4] Bundling source
func Step(step, total int, message string) {
	_, _ = gray.Fprintf(Stderr, "[%d/%d] ", step, total)
	_, _ = fmt.Fprintln(Stderr, message)
}

// StepSuccess prints a successful step completion (to stderr)
// Example: [3/4] ✓ Cloud Build completed
func StepSuccess(step, total int, message string) {
	_, _ = gray.Fprintf(Stderr, "[%d/%d] ", step, total)
	_, _ = fmt.Fprintf(Stderr, "%s %s\n", green.Sprint("✓"), message)
}

// StepError prints a failed step (to stderr)
func StepError(step, total int, message string) {
	_, _ = gray.Fprintf(Stderr, "[%d/%d] ", step, total)
	_, _ = fmt.Fprintf(Stderr, "%s %s\n", red.Sprint("✗"), message)
}

// Header prints a section header with a separator line
func Header(text string) {
	_, _ = fmt.Fprintln(Stdout)
	_, _ = fmt.Fprintln(Stdout, bold.Sprint(text))
	_, _ = fmt.Fprintln(Stdout, gray.Sprint(strings.Repeat("━", 50)))
}

// KeyValue prints a key-value pair with indentation
// Example:   Service: svc
func KeyValue(key, value string) {
	_, _ = fmt.Fprintf(Stdout, "  %s: %s\n", gray.Sprint(key), value)
}

// Blank prints a blank line
func Blank() {
	_, _ = fmt.Fprintln(Stdout)
}

// Println prints a plain line without any formatting
func Println(a ...any) {
	_, _ = fmt.Fprintln(Stdout, a...)
}

// Printf prints a formatted plain line
func Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(Stdout, format, a...)
}

// Bold returns text in bold
func Bold(text string) string {
	return bold.Sprint(text)
}

// Cyan returns text in cyan
func Cyan(text string) string {
	return cyan.Sprint(text)
}

// Gray returns text in gray
func Gray(text string) string {
	return gray.Sprint(text)
}

// Green returns text in green
func Green(text string) string {
	return green.Sprint(text)
}

// Red returns text in red
func Red(text string) string {
	return red.Sprint(text)
}

// Yellow returns text in yellow
func Yellow(text string) string {
	return yellow.Sprint(text)
}

// Confirm prompts the user with a yes/no question and returns the answer
func Confirm(prompt string) bool {
	_, _ = fmt.Fprintf(Stdout, "%s [y/N]: ", yellow.Sprint("?")+" "+prompt)

	var response string
	_, _ = fmt.Scanln(&response)

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		fileInfo, _ := f.Stat()
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}
