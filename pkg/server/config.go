package server

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NicolasHaas/linechat/pkg/logging"
	"github.com/NicolasHaas/linechat/pkg/store"
)

// Config holds server configuration. It can be loaded from YAML; the CLI
// overrides individual fields.
type Config struct {
	ListenAddr     string `yaml:"listen"`          // TCP bind address (e.g. ":5550")
	AccountsPath   string `yaml:"accounts"`        // account file or SQLite database path
	AccountsDriver string `yaml:"accounts_driver"` // "file" or "sqlite"
	WatchAccounts  bool   `yaml:"watch_accounts"`  // reload the account file on change (file driver only)
	TranscriptPath string `yaml:"transcript"`      // request/response transcript (empty = disabled)
	MetricsAddr    string `yaml:"metrics"`         // HTTP bind address for /metrics (empty = disabled)
	MaxConns       int    `yaml:"max_conns"`       // concurrent connection cap (0 = unlimited)

	MetricsLogInterval time.Duration `yaml:"metrics_log_interval"` // periodic metrics summary (0 = disabled)

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddr:         ":5550",
		AccountsPath:       "account.txt",
		AccountsDriver:     store.DriverFile,
		MetricsLogInterval: 60 * time.Second,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// LoadConfigFile overlays the YAML file at path onto cfg. Keys absent from
// the file keep their current values.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // path from CLI
	if err != nil {
		return fmt.Errorf("server: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("server: parse config: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the server cannot run with.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("server: listen address must not be empty")
	}
	if c.AccountsPath == "" {
		return fmt.Errorf("server: accounts path must not be empty")
	}
	switch c.AccountsDriver {
	case store.DriverFile, store.DriverSQLite:
	default:
		return fmt.Errorf("server: unknown accounts driver %q (valid: %s, %s)", c.AccountsDriver, store.DriverFile, store.DriverSQLite)
	}
	if c.WatchAccounts && c.AccountsDriver != store.DriverFile {
		return fmt.Errorf("server: watch_accounts requires the %s driver", store.DriverFile)
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("server: max_conns must be >= 0, got %d", c.MaxConns)
	}
	if c.MetricsLogInterval < 0 {
		return fmt.Errorf("server: metrics_log_interval must be >= 0, got %s", c.MetricsLogInterval)
	}
	return logging.Validate(c.LogLevel)
}

// ListenAddrFromPort turns a bare port number into a bind address on all
// interfaces.
func ListenAddrFromPort(port string) (string, error) {
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", fmt.Errorf("server: invalid port %q", port)
	}
	return ":" + strconv.Itoa(n), nil
}
