package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "exported_emails", cfg.Export.OutputDir)
	assert.Equal(t, "year-month", cfg.Export.DateBucket)
	assert.True(t, cfg.Export.CreateIndex)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[export]
output_dir = "/tmp/mail"
date_bucket = "year"
overwrite = true

[logging]
level = "debug"
format = "json"

[auth]
client_id = "id.apps.googleusercontent.com"
client_secret = "secret"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/mail", cfg.Export.OutputDir)
	assert.Equal(t, "year", cfg.Export.DateBucket)
	assert.True(t, cfg.Export.Overwrite)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "secret", cfg.Auth.ClientSecret)
	// Untouched sections keep their defaults.
	assert.True(t, cfg.History.Enabled)
}

func TestLoadRejectsBadBucket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[export]\ndate_bucket = \"weekly\"\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date_bucket")
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestHistoryPath(t *testing.T) {
	cfg := Default()
	cfg.History.Path = "/var/lib/g2m.db"
	assert.Equal(t, "/var/lib/g2m.db", cfg.HistoryPath())

	cfg.History.Path = ""
	assert.Contains(t, cfg.HistoryPath(), "history.db")
}
