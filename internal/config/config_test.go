package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "scopewatch", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0 */6 * * *", cfg.Monitor.ScopeCheckCron)
	assert.Equal(t, 5, cfg.Monitor.Concurrency)
	assert.Equal(t, 48*time.Hour, cfg.Monitor.ChecksumCacheTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Contains(t, cfg.Database.DSN(), "dbname=scopewatch")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MONITOR_CONCURRENCY", "2")
	t.Setenv("PLATFORM_RATE_PER_SECOND", "0.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Monitor.Concurrency)
	assert.Equal(t, 0.5, cfg.Platforms.RatePerSecond)
}

func TestLoad_FileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
monitor:
  scope_check_cron: "0 * * * *"
  concurrency: 3
notification:
  slack_webhook_url: https://hooks.slack.com/services/T/B/x
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("SCOPEWATCH_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0 * * * *", cfg.Monitor.ScopeCheckCron)
	assert.Equal(t, 3, cfg.Monitor.Concurrency)
	assert.Equal(t, "https://hooks.slack.com/services/T/B/x", cfg.Notification.SlackWebhookURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	// untouched settings keep their defaults
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestLoad_ProductionRejectsDefaultPassword(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default database password")
}
