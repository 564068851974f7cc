package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all shell configuration.
type Config struct {
	App            AppConfig
	IPC            IPCConfig
	SingleInstance SingleInstanceConfig
	Updater        UpdaterConfig
	HTTP           HTTPConfig
	FS             FSConfig
	Shell          ShellConfig
	Logging        LogConfig
	RateLimit      RateLimitConfig
}

// AppConfig identifies the application.
type AppConfig struct {
	Identifier string `envconfig:"STUDIO_IDENTIFIER" default:"dev.agentos.studio"`
	Version    string `envconfig:"STUDIO_VERSION" default:"0.1.0"`
	Manifest   string `envconfig:"STUDIO_MANIFEST"`
	DataDir    string `envconfig:"STUDIO_DATA_DIR"`
}

// IPCConfig holds the renderer bridge settings.
type IPCConfig struct {
	Host           string   `envconfig:"IPC_HOST" default:"127.0.0.1"`
	Port           string   `envconfig:"IPC_PORT" default:"1430"`
	AllowOrigins   []string `envconfig:"IPC_ALLOW_ORIGINS" default:"http://localhost:1420"`
	MaxConnections int      `envconfig:"IPC_MAX_CONNECTIONS" default:"64"`
}

// SingleInstanceConfig holds the lock and relay socket location.
type SingleInstanceConfig struct {
	Dir string `envconfig:"SINGLE_INSTANCE_DIR"`
}

// UpdaterConfig holds update endpoint settings.
type UpdaterConfig struct {
	Endpoints []string      `envconfig:"UPDATER_ENDPOINTS"`
	PublicKey string        `envconfig:"UPDATER_PUBKEY"`
	Timeout   time.Duration `envconfig:"UPDATER_TIMEOUT" default:"30s"`
}

// HTTPConfig scopes the http capability.
type HTTPConfig struct {
	Allow             []string `envconfig:"HTTP_ALLOW"`
	RequestsPerSecond float64  `envconfig:"HTTP_RPS" default:"0"`
}

// FSConfig scopes the fs capability.
type FSConfig struct {
	Scope []string `envconfig:"FS_SCOPE" default:"$APPDATA/**,$TEMP/**"`
}

// ShellConfig scopes the shell capability.
type ShellConfig struct {
	Allow []string `envconfig:"SHELL_ALLOW"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds IPC rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Identifier: "dev.agentos.studio",
			Version:    "0.1.0",
		},
		IPC: IPCConfig{
			Host:           "127.0.0.1",
			Port:           "1430",
			AllowOrigins:   []string{"http://localhost:1420"},
			MaxConnections: 64,
		},
		Updater: UpdaterConfig{
			Timeout: 30 * time.Second,
		},
		FS: FSConfig{
			Scope: []string{"$APPDATA/**", "$TEMP/**"},
		},
		Logging: LogConfig{},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// ResolveDataDir returns the per-user data directory of the app,
// defaulting to <user config dir>/<identifier>.
func (c AppConfig) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(base, c.Identifier), nil
}

// ResolveDir returns the directory holding the lock file and relay socket.
func (c SingleInstanceConfig) ResolveDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir
	}
	return os.TempDir()
}

// Addr returns the IPC listen address.
func (c IPCConfig) Addr() string {
	return c.Host + ":" + c.Port
}
