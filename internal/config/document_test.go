package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "corrax.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

func TestLoadDocumentValid(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, `
version: 1
preset: balanced
stages:
  clone: true
overrides:
  taint:
    max_depth: 80
`)

	doc, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), doc.Version)
	assert.Equal(t, "balanced", doc.Preset)
	assert.True(t, doc.Stages["clone"])

	o, err := doc.ToOverride()
	require.NoError(t, err)
	require.NotNil(t, o.taintMaxDepth)
	assert.Equal(t, 80, *o.taintMaxDepth)
}

func TestLoadDocumentMissingVersion(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, `preset: fast`)

	_, err := LoadDocument(path)
	require.Error(t, err)

	var missing *MissingVersionError
	assert.ErrorAs(t, err, &missing)
}

func TestLoadDocumentUnknownTopLevelField(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, `
version: 1
presett: fast
`)

	_, err := LoadDocument(path)
	require.Error(t, err)

	var unknown *UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, unknown.Suggestions, "preset")
}

func TestLoadDocumentUnsupportedVersion(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, `version: 2`)

	_, err := LoadDocument(path)
	require.Error(t, err)

	var unsupported *UnsupportedVersionError
	assert.ErrorAs(t, err, &unsupported)
}

func TestLoadDocumentUnknownOverrideField(t *testing.T) {
	t.Parallel()

	path := writeDoc(t, `
version: 1
overrides:
  taint:
    mx_depth: 10
`)

	_, err := LoadDocument(path)
	require.Error(t, err)

	var unknown *UnknownFieldError
	assert.ErrorAs(t, err, &unknown)
}

func TestEnvOverrideReadsPrefixedVars(t *testing.T) {
	t.Setenv("CORRAX__TAINT__MAX_DEPTH", "42")

	o, err := EnvOverride()
	require.NoError(t, err)
	require.NotNil(t, o.taintMaxDepth)
	assert.Equal(t, 42, *o.taintMaxDepth)
}
