package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("RECON_LOG_LEVEL", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	s := LoadSettings(NewViper())
	assert.Equal(t, ".", s.Dir)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, 4, s.Workers)
	assert.Empty(t, s.GeminiAPIKey)
	assert.Equal(t, FileName, s.Path())
}

func TestLoadSettings_Env(t *testing.T) {
	t.Setenv("RECON_LOG_LEVEL", "debug")
	t.Setenv("RECON_WORKERS", "8")
	t.Setenv("RECON_DIR", "/srv/recon")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "g-key")

	s := LoadSettings(NewViper())
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 8, s.Workers)
	assert.Equal(t, "g-key", s.GeminiAPIKey)
	assert.Equal(t, filepath.Join("/srv/recon", FileName), s.Path())
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RECON_TEST_FROM_DOTENV=yes\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("RECON_TEST_FROM_DOTENV") })

	LoadEnvFiles(dir)
	assert.Equal(t, "yes", os.Getenv("RECON_TEST_FROM_DOTENV"))

	LoadEnvFiles(filepath.Join(dir, "missing"))
}

func TestLoadEnvFiles_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RECON_LOG_LEVEL=trace\n"), 0o644))
	t.Setenv("RECON_LOG_LEVEL", "warn")

	LoadEnvFiles(dir)
	assert.Equal(t, "warn", LoadSettings(NewViper()).LogLevel)
}
