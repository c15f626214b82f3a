// Package config provides configuration management for the Shot Workbench agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort       = 8787
	DefaultLogLevel   = "info"
	DefaultDataDir    = ".shot-workbench"
	DefaultBackendURL = "http://127.0.0.1:8000"

	// Environment variable names
	EnvPort       = "WORKBENCH_PORT"
	EnvLogLevel   = "WORKBENCH_LOG_LEVEL"
	EnvDataDir    = "WORKBENCH_DATA_DIR"
	EnvBackendURL = "WORKBENCH_BACKEND_URL"
	EnvHeadless   = "WORKBENCH_HEADLESS"

	// Database filename
	DBFilename = "workbench.db"

	// Timer defaults. The refresh retry and live reconnect delays are fixed;
	// the autosave debounce coalesces rapid edits into one save.
	DefaultRefreshRetryDelay = 2 * time.Second
	DefaultLiveRetryDelay    = 3 * time.Second
	DefaultAutosaveDebounce  = 450 * time.Millisecond
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	BackendURL() string
	Headless() bool
	RefreshRetryDelay() time.Duration
	LiveRetryDelay() time.Duration
	AutosaveDebounce() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port       int
	logLevel   string
	dataDir    string
	backendURL string
	headless   bool
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:       DefaultPort,
		logLevel:   DefaultLogLevel,
		dataDir:    defaultDataDir(),
		backendURL: DefaultBackendURL,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	// Override backend base URL from environment
	if bu := os.Getenv(EnvBackendURL); bu != "" {
		cfg.backendURL = bu
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	return cfg, nil
}

// Port returns the local HTTP API port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// BackendURL returns the segmentation backend base URL
func (c *EnvConfig) BackendURL() string {
	return c.backendURL
}

// Headless reports whether the system tray should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) RefreshRetryDelay() time.Duration {
	return DefaultRefreshRetryDelay
}

func (c *EnvConfig) LiveRetryDelay() time.Duration {
	return DefaultLiveRetryDelay
}

func (c *EnvConfig) AutosaveDebounce() time.Duration {
	return DefaultAutosaveDebounce
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
