package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ynishi/propel/internal/errors"
)

func TestEjectRoundtrip(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsEjected(dir))

	require.NoError(t, Eject(dir, "FROM scratch\n"))
	assert.True(t, IsEjected(dir))

	content, err := LoadEjected(dir)
	require.NoError(t, err)
	assert.Equal(t, "FROM scratch\n", content)
}

func TestEject_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Eject(dir, "FROM scratch\n"))

	err := Eject(dir, "FROM alpine\n")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindLocalValidation, apperrors.GetKind(err))

	// Original content is untouched.
	content, err := LoadEjected(dir)
	require.NoError(t, err)
	assert.Equal(t, "FROM scratch\n", content)
}

func TestLoadEjected_Missing(t *testing.T) {
	_, err := LoadEjected(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindLocalIO, apperrors.GetKind(err))
}
