package tmplopts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDir_NoFile_ReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	opts, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, Default().TimeFormat, opts.TimeFormat)
	assert.True(t, opts.Autoescape)
	assert.True(t, opts.CaseSensitive)
}

func TestLoadFromDir_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	contents := "autoescape: false\ncase_sensitive: false\nerror_message: \"oops\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(contents), 0o644))

	opts, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.False(t, opts.Autoescape)
	assert.False(t, opts.CaseSensitive)
	assert.Equal(t, "oops", opts.ErrorMessage)
	// Untouched fields still fall back to the built-in defaults.
	assert.Equal(t, Default().TimeFormat, opts.TimeFormat)
}

func TestLoadFromDir_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	contents := "error_message: \"from file\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(contents), 0o644))

	t.Setenv("GOTMPL_ERROR_MESSAGE", "from env")

	opts, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "from env", opts.ErrorMessage)
}
