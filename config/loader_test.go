package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.HTTPPort)
	assert.Equal(t, 2*time.Second, cfg.Poller.PollInterval)
	assert.Equal(t, 10, cfg.Poller.MaxAttempts)
	assert.Equal(t, 60*time.Minute, cfg.Session.InactivityThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Session.OrphanThreshold)
	assert.Equal(t, 1000, cfg.Cache.MaxEntries)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTLPatents)
	assert.Equal(t, 30*24*time.Hour, cfg.Cache.TTLMPStats)
	require.NoError(t, cfg.Validate())
}

func TestLoader_YAMLOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  http_port: 9000
session:
  inactivity_threshold: 30m
  orphan_threshold: 2m
tools:
  surechembl:
    page_size: 25
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.HTTPPort)
	assert.Equal(t, 30*time.Minute, cfg.Session.InactivityThreshold)
	assert.Equal(t, 2*time.Minute, cfg.Session.OrphanThreshold)
	assert.Equal(t, 25, cfg.Tools.SureChEMBL.PageSize)
	// untouched fields keep defaults
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
}

func TestLoader_EnvOverride(t *testing.T) {
	t.Setenv("MATDISCO_LLM_API_KEY", "sk-test")
	t.Setenv("MATDISCO_HTTP_PORT", "8088")
	t.Setenv("MATDISCO_SESSION_ORPHAN_THRESHOLD", "90s")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 8088, cfg.Server.HTTPPort)
	assert.Equal(t, 90*time.Second, cfg.Session.OrphanThreshold)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.OrphanThreshold = cfg.Session.InactivityThreshold
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Poller.MaxAttempts = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.MetricsPort = cfg.Server.HTTPPort
	assert.Error(t, cfg.Validate())
}
