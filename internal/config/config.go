package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	TLSSelfSigned   bool          `yaml:"tls_self_signed"  env:"SERVER_TLS_SELF_SIGNED"  env-default:"false"`
}

// Store backends.
const (
	BackendEmbedded  = "embedded"
	BackendFirestore = "firestore"
)

// StoreConfig selects and parameterizes the document store.
type StoreConfig struct {
	Backend         string `yaml:"backend"          env:"STORE_BACKEND"              env-default:"embedded"`
	ProjectID       string `yaml:"project_id"       env:"FIRESTORE_PROJECT_ID"`
	CredentialsFile string `yaml:"credentials_file" env:"FIRESTORE_CREDENTIALS_FILE"`
	DataDir         string `yaml:"data_dir"         env:"STORE_DATA_DIR"             env-default:"./data"`
}

// DefaultNotificationMessage is the alert text written by the "send alert" action.
const DefaultNotificationMessage = "You may have been exposed to COVID-19 in a building you recently visited. Please monitor your symptoms and get tested."

// DashboardConfig holds view and session settings.
type DashboardConfig struct {
	Timezone            string        `yaml:"timezone"             env:"DASHBOARD_TIMEZONE"             env-default:"Local"`
	NotificationMessage string        `yaml:"notification_message" env:"DASHBOARD_NOTIFICATION_MESSAGE"`
	SessionTTL          time.Duration `yaml:"session_ttl"          env:"DASHBOARD_SESSION_TTL"          env-default:"30m"`
	// SessionKey is a hex-encoded 32-byte AES key sealing the session cookie.
	// Empty means a random key per process start.
	SessionKey string `yaml:"session_key" env:"DASHBOARD_SESSION_KEY"`

	// Location is parsed from Timezone during validation.
	Location *time.Location `yaml:"-" env:"-"`
	// SessionKeyBytes is decoded from SessionKey during validation.
	SessionKeyBytes []byte `yaml:"-" env:"-"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Path    string `yaml:"path"    env:"METRICS_PATH"    env-default:"/metrics"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
