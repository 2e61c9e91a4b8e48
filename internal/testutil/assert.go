package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/ynishi/propel/internal/errors"
)

// AssertErrorKind checks that the error carries the expected propel error kind.
func AssertErrorKind(t *testing.T, err error, expectedKind string) bool {
	t.Helper()
	kind := apperrors.GetKind(err)
	if kind != expectedKind {
		return assert.Fail(t, "Error kind mismatch",
			"Expected error kind %q, got %q (error: %v)", expectedKind, kind, err)
	}
	return true
}

// AssertNoRemoteCalls checks that the fake executor saw no gcloud invocations.
// Git invocations are allowed; local validation may consult the working tree.
func AssertNoRemoteCalls(t *testing.T, exec *FakeExecutor) bool {
	t.Helper()
	for _, line := range exec.CommandLines() {
		if len(line) >= 6 && line[:6] == "gcloud" {
			return assert.Fail(t, "Unexpected remote call", "gcloud was invoked: %s", line)
		}
	}
	return true
}
