package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/depotctl/depotctl/internal/domain"
)

// Config represents the complete configuration for depotctl
type Config struct {
	// Server holds the backend connection settings
	Server ServerConfig `mapstructure:"server"`

	// Poll controls the background listing refresh
	Poll PollConfig `mapstructure:"poll"`

	// Notify controls the websocket notification client
	Notify NotifyConfig `mapstructure:"notify"`

	// Search controls suggestion pacing and the local listing cache
	Search SearchConfig `mapstructure:"search"`

	// Log configures the logger facade
	Log LogConfig `mapstructure:"log"`

	// DataDir holds the local state database, lock and pid files
	DataDir string `mapstructure:"data_dir"`
}

// ServerConfig holds backend connection settings
type ServerConfig struct {
	// BaseURL is the REST endpoint root, e.g. "http://depot.local:8080"
	BaseURL string `mapstructure:"base_url"`

	// SocketURL is the websocket endpoint; derived from BaseURL when empty
	SocketURL string `mapstructure:"socket_url"`

	// Timeout bounds each HTTP request
	Timeout time.Duration `mapstructure:"timeout"`
}

// PollConfig controls the background refresh loop
type PollConfig struct {
	// Interval between listing refreshes; the original views used 5-10s
	Interval time.Duration `mapstructure:"interval"`
}

// NotifyConfig controls websocket reconnect behavior
type NotifyConfig struct {
	// MaxRetries bounds reconnect attempts before falling back to polling
	MaxRetries int `mapstructure:"max_retries"`

	// RetryInterval is the fixed backoff between reconnect attempts
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// SearchConfig controls the suggestion pipeline
type SearchConfig struct {
	// Debounce is the quiet window before a suggestion query fires
	Debounce time.Duration `mapstructure:"debounce"`

	// CacheTTL bounds how long a fetched listing feeds local suggestions
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	File    string `mapstructure:"file"`
	MaxSize int    `mapstructure:"max_size_mb"`
	MaxAge  int    `mapstructure:"max_age_days"`
	Backups int    `mapstructure:"max_backups"`
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("%w: server.base_url is required", domain.ErrConfigInvalid)
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: server.base_url %q is not a valid URL", domain.ErrConfigInvalid, c.Server.BaseURL)
	}
	if c.Server.SocketURL != "" {
		su, err := url.Parse(c.Server.SocketURL)
		if err != nil || (su.Scheme != "ws" && su.Scheme != "wss") {
			return fmt.Errorf("%w: server.socket_url %q must be a ws:// or wss:// URL", domain.ErrConfigInvalid, c.Server.SocketURL)
		}
	}
	if c.Poll.Interval < 0 {
		return fmt.Errorf("%w: poll.interval cannot be negative", domain.ErrConfigInvalid)
	}
	if c.Notify.MaxRetries < 0 {
		return fmt.Errorf("%w: notify.max_retries cannot be negative", domain.ErrConfigInvalid)
	}
	return nil
}

// WebsocketURL returns the configured socket URL, deriving ws:// from
// the REST base URL when none was given.
func (c *Config) WebsocketURL() string {
	if c.Server.SocketURL != "" {
		return c.Server.SocketURL
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return ""
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return scheme + "://" + u.Host + "/ws"
}

// StateDBPath returns the local state database location
func (c *Config) StateDBPath() string {
	return filepath.Join(ExpandPath(c.DataDir), "depotctl.db")
}

// LockDir returns the directory holding the single-instance lock for watch mode
func (c *Config) LockDir() string {
	return ExpandPath(c.DataDir)
}

// PIDPath returns the watch daemon pidfile location
func (c *Config) PIDPath() string {
	return filepath.Join(ExpandPath(c.DataDir), "depotctl.pid")
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
