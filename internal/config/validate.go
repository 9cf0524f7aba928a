package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // timezone names resolve without a system zoneinfo
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 0..65535 (got %d)", c.Server.Port)
	}

	if err := c.Store.validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if err := c.Dashboard.validate(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with / (got %q)", c.Metrics.Path)
	}

	return nil
}

func (s *StoreConfig) validate() error {
	switch s.Backend {
	case BackendEmbedded:
		if s.DataDir == "" {
			return fmt.Errorf("data_dir is required for the %s backend", BackendEmbedded)
		}
	case BackendFirestore:
		if s.ProjectID == "" {
			return fmt.Errorf("project_id is required for the %s backend", BackendFirestore)
		}
	default:
		return fmt.Errorf("backend must be %q or %q (got %q)", BackendEmbedded, BackendFirestore, s.Backend)
	}
	return nil
}

func (d *DashboardConfig) validate() error {
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	d.Location = loc

	if strings.TrimSpace(d.NotificationMessage) == "" {
		d.NotificationMessage = DefaultNotificationMessage
	}

	if d.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be > 0 (got %s)", d.SessionTTL)
	}

	if d.SessionKey != "" {
		key, err := hex.DecodeString(d.SessionKey)
		if err != nil {
			return fmt.Errorf("session_key: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("session_key must decode to 32 bytes (got %d)", len(key))
		}
		d.SessionKeyBytes = key
	}

	return nil
}
