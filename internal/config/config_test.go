package config

import (
	"os"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
timezone: America/New_York
events: ./events.yaml
spread: true
fields:
  starts: start_time
  name: title
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", cfg.Timezone)
	assert.Equal(t, "./events.yaml", cfg.Events)
	assert.True(t, cfg.Spread)
	assert.True(t, cfg.Watch)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, map[string]string{"starts": "start_time", "name": "title"}, cfg.Fields)
	assert.Nil(t, cfg.BasicAuth)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Padding = true
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	cfg.LogLevel = "chatty"
	cfg.RefreshCron = "every now and then"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timezone")
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "refresh")

	cfg = DefaultConfig()
	cfg.RefreshCron = ""
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	content := "MONTHCAL_LISTEN=0.0.0.0:9000\nMONTHCAL_SPREAD=true\nMONTHCAL_TIMEZONE=Asia/Tokyo\n"
	require.NoError(t, os.WriteFile(dotenv, []byte(content), 0o600))

	t.Setenv("MONTHCAL_TIMEZONE", "Europe/Berlin")
	t.Setenv("MONTHCAL_BASIC_AUTH_PASSWORD", "secret")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv(filepath.Join(dir, "missing.env"), dotenv))

	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.True(t, cfg.Spread)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone, "process env wins over .env")
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "secret", cfg.BasicAuth.Password)
	assert.Empty(t, cfg.BasicAuth.Username)
}

func TestApplyEnvBadBool(t *testing.T) {
	t.Setenv("MONTHCAL_WATCH", "sometimes")
	err := DefaultConfig().ApplyEnv()
	assert.ErrorContains(t, err, "MONTHCAL_WATCH")
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Asia/Seoul"
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())

	cfg.Timezone = "Nowhere/Special"
	assert.Equal(t, "UTC", cfg.Location().String())
}
