package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
collectors:
  cpu:
    enabled: true
    type: cpu
    collection_interval: 10s
    timeout: 2s
    retry_attempts: 2
    retry_delay: 500ms
global:
  default_collection_interval: 15s
  log_level: debug
storage:
  backend: bolt
  config:
    path: /var/lib/beacon/ts.db
  retention:
    with_defaults: true
    rules:
      - pattern: "cpu_*"
        retention: 15m
        priority: 10
        min_points_to_keep: 5
alerts:
  evaluation_interval: 30s
  max_alerts: 500
prometheus:
  enabled: true
  port: 9100
  path: /metrics
`

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "beacond.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadParsesFullSchema(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Contains(t, cfg.Collectors, "cpu")
	assert.True(t, cfg.Collectors["cpu"].Enabled)
	assert.Equal(t, 10*time.Second, cfg.Collectors["cpu"].CollectionInterval.Duration)
	assert.Equal(t, 500*time.Millisecond, cfg.Collectors["cpu"].RetryDelay.Duration)
	assert.Equal(t, "debug", cfg.Global.LogLevel)
	assert.Equal(t, "/var/lib/beacon/ts.db", cfg.Storage.Config["path"])
	require.Len(t, cfg.Storage.Retention.Rules, 1)
	assert.Equal(t, "cpu_*", cfg.Storage.Retention.Rules[0].Pattern)
	assert.Equal(t, 15*time.Minute, cfg.Storage.Retention.Rules[0].Retention.Duration)
	assert.Equal(t, 500, cfg.Alerts.MaxAlerts)
	assert.Equal(t, 9100, cfg.Prometheus.Port)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Global.LogLevel, cfg.Global.LogLevel)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("METRICS_DB_PATH", "/tmp/override.db")
	t.Setenv("METRICS_RETENTION_DAYS", "30")
	t.Setenv("EVALUATION_INTERVAL_SECONDS", "45")
	t.Setenv("HOOK_MAX_CONCURRENT", "12")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.Storage.Config["path"])
	assert.Equal(t, 30, cfg.Storage.Retention.DefaultRetentionDays)
	assert.Equal(t, 45*time.Second, cfg.Alerts.EvaluationInterval.Duration)
	assert.Equal(t, 12, cfg.Hooks.MaxConcurrent)
	assert.Equal(t, 30*24*time.Hour, cfg.DefaultRetention())
}

func TestLoadRejectsInvalidEnvOverride(t *testing.T) {
	t.Setenv("METRICS_RETENTION_DAYS", "not-a-number")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeTempConfig(t, "collectors: [this is not a map]")
	_, err := Load(path)
	assert.Error(t, err)
}
