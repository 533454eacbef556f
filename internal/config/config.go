// Package config provides configuration management for the PulsePoint Agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// Default values
	DefaultPort     = 8793
	DefaultLogLevel = "info"
	DefaultDataDir  = ".pulsepoint"

	// Environment variable names
	EnvPort     = "PULSEPOINT_PORT"
	EnvLogLevel = "PULSEPOINT_LOG_LEVEL"
	EnvDataDir  = "PULSEPOINT_DATA_DIR"
	EnvHeadless = "PULSEPOINT_HEADLESS"

	// Object storage environment variable names
	EnvGCSBucket = "PULSEPOINT_GCS_BUCKET"

	// Analysis backend environment variable names
	EnvAnalysisBaseURL = "PULSEPOINT_ANALYSIS_URL"
	EnvAnalysisToken   = "PULSEPOINT_ANALYSIS_TOKEN"

	// Database filename
	DBFilename = "pulsepoint.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	BlobDir() string
	ExportDir() string
	GCSBucket() string
	AnalysisBaseURL() string
	AnalysisToken() string
	Headless() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	headless bool

	gcsBucket       string
	analysisBaseURL string
	analysisToken   string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:     DefaultPort,
		logLevel: DefaultLogLevel,
		dataDir:  defaultDataDir(),
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

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	cfg.gcsBucket = os.Getenv(EnvGCSBucket)
	cfg.analysisBaseURL = os.Getenv(EnvAnalysisBaseURL)
	cfg.analysisToken = os.Getenv(EnvAnalysisToken)

	return cfg, nil
}

// Port returns the HTTP server port
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

// BlobDir returns the local object store root, used when no GCS bucket
// is configured.
func (c *EnvConfig) BlobDir() string {
	return filepath.Join(c.dataDir, "blobs")
}

// ExportDir returns the directory export manifests are written to
func (c *EnvConfig) ExportDir() string {
	return filepath.Join(c.dataDir, "exports")
}

// GCSBucket returns the GCS bucket name; empty selects the local disk store
func (c *EnvConfig) GCSBucket() string {
	return c.gcsBucket
}

// AnalysisBaseURL returns the analysis backend base URL; empty selects the
// embedded stub and the simulated stage schedule
func (c *EnvConfig) AnalysisBaseURL() string {
	return c.analysisBaseURL
}

// AnalysisToken returns the bearer token for the analysis backend
func (c *EnvConfig) AnalysisToken() string {
	return c.analysisToken
}

// Headless reports whether the system tray should be disabled
func (c *EnvConfig) Headless() bool {
	return c.headless
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
