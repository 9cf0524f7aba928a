package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server:    ServerConfig{Host: "0.0.0.0", Port: 8080},
		Store:     StoreConfig{Backend: BackendEmbedded, DataDir: "./data"},
		Dashboard: DashboardConfig{Timezone: "UTC", SessionTTL: 30 * time.Minute},
		Log:       LogConfig{Level: "info", Format: "json"},
		Metrics:   MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func TestValidate_DerivesFields(t *testing.T) {
	cfg := validConfig()
	cfg.Dashboard.SessionKey = strings.Repeat("ab", 32)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.UTC, cfg.Dashboard.Location)
	assert.Len(t, cfg.Dashboard.SessionKeyBytes, 32)
	assert.Equal(t, DefaultNotificationMessage, cfg.Dashboard.NotificationMessage)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "mongo" }, "backend must be"},
		{"firestore without project", func(c *Config) { c.Store.Backend = BackendFirestore }, "project_id is required"},
		{"bad timezone", func(c *Config) { c.Dashboard.Timezone = "Mars/Olympus" }, "timezone"},
		{"short session key", func(c *Config) { c.Dashboard.SessionKey = "abcd" }, "32 bytes"},
		{"non-hex session key", func(c *Config) { c.Dashboard.SessionKey = "zz" }, "session_key"},
		{"zero ttl", func(c *Config) { c.Dashboard.SessionTTL = 0 }, "session_ttl"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"relative metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_FromEnvDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DASHBOARD_TIMEZONE", "UTC")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, BackendEmbedded, cfg.Store.Backend)
	assert.Equal(t, "./data", cfg.Store.DataDir)
	assert.Equal(t, 30*time.Minute, cfg.Dashboard.SessionTTL)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
store:
  backend: firestore
  project_id: guard-up
dashboard:
  timezone: Europe/Vilnius
  notification_message: "Please get tested."
log:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendFirestore, cfg.Store.Backend)
	assert.Equal(t, "guard-up", cfg.Store.ProjectID)
	assert.Equal(t, "Europe/Vilnius", cfg.Dashboard.Location.String())
	assert.Equal(t, "Please get tested.", cfg.Dashboard.NotificationMessage)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}
