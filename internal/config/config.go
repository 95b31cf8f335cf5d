// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/codexhud/internal/models"
	"github.com/j-veylop/codexhud/internal/usage"
)

// Config holds the application configuration.
type Config struct {
	CodexHome       string
	SessionsDir     string
	AuthPath        string
	StatePath       string
	DatabasePath    string
	WatchMode       string
	HelloModel      string
	CodexBin        string
	LogLevel        string
	LogFormat       string
	RefreshInterval time.Duration
	WatchDebounce   time.Duration
	TailBytes       int64
	CriticalPercent models.Percent
	WarningPercent  models.Percent
	Notifications   bool
}

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// First existing .env wins; real environment variables still take precedence.
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	codexHome := getEnvString(envCodexHome, getDefaultCodexHome())

	cfg := &Config{
		CodexHome:       codexHome,
		SessionsDir:     getEnvString(envSessionsDir, filepath.Join(codexHome, "sessions")),
		AuthPath:        getEnvString(envAuthPath, filepath.Join(codexHome, "auth.json")),
		StatePath:       getEnvString(envStatePath, getDefaultDataPath("state.json")),
		DatabasePath:    getEnvString(envDatabasePath, getDefaultDataPath("history.db")),
		WatchMode:       strings.ToLower(getEnvString(envWatchMode, WatchModeFSNotify)),
		HelloModel:      getEnvString(envHelloModel, defaultHelloModel),
		CodexBin:        os.Getenv(envCodexBin),
		LogLevel:        getEnvString(envLogLevel, defaultLogLevel),
		LogFormat:       getEnvString(envLogFormat, defaultLogFormat),
		RefreshInterval: getEnvDuration(envRefreshInterval, defaultRefreshInterval),
		WatchDebounce:   getEnvDuration(envWatchDebounce, defaultWatchDebounce),
		TailBytes:       getEnvInt64(envTailBytes, defaultTailBytes),
		Notifications:   getEnvBool(envNotifications, true),
	}

	var err error
	if cfg.CriticalPercent, err = getEnvPercent(envCritical, defaultCritical); err != nil {
		return nil, err
	}
	if cfg.WarningPercent, err = getEnvPercent(envWarning, defaultWarning); err != nil {
		return nil, err
	}
	if cfg.WarningPercent.Less(cfg.CriticalPercent) {
		return nil, fmt.Errorf("%s (%s) must not be below %s (%s)",
			envWarning, cfg.WarningPercent, envCritical, cfg.CriticalPercent)
	}

	if cfg.WatchMode != WatchModeFSNotify && cfg.WatchMode != WatchModePoll {
		return nil, fmt.Errorf("%s must be %q or %q, got %q",
			envWatchMode, WatchModeFSNotify, WatchModePoll, cfg.WatchMode)
	}
	if cfg.TailBytes <= 0 {
		cfg.TailBytes = defaultTailBytes
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshInterval
	}

	if err := ensureDir(filepath.Dir(cfg.StatePath)); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Thresholds returns the configured alert cut points.
func (c *Config) Thresholds() usage.Thresholds {
	return usage.Thresholds{Critical: c.CriticalPercent, Warning: c.WarningPercent}
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "codexhud", ".env"),
			filepath.Join(home, ".codex", ".env"),
		)
	}

	return paths
}

// getDefaultCodexHome returns the directory the codex CLI keeps its files in.
func getDefaultCodexHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codex"
	}
	return filepath.Join(home, ".codex")
}

// getDefaultDataPath returns name inside the codexhud config directory.
func getDefaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".config", "codexhud", name)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvPercent parses a percentage. Unlike the other helpers an invalid
// value is an error.
func getEnvPercent(key string, defaultValue float64) (models.Percent, error) {
	value := os.Getenv(key)
	if value == "" {
		return models.MustPercent(defaultValue), nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return models.Percent{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	p, err := models.NewPercent(f)
	if err != nil {
		return models.Percent{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return p, nil
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
