package config

import "time"

// Default values
const (
	defaultRefreshInterval = 5 * time.Minute
	defaultWatchDebounce   = 3 * time.Second
	defaultTailBytes       = 256 * 1024
	defaultCritical        = 5.0
	defaultWarning         = 15.0
	defaultHelloModel      = "gpt-5.1-codex-mini"
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"

	// WatchModeFSNotify uses native file system notifications.
	WatchModeFSNotify = "fsnotify"
	// WatchModePoll compares modification times on an interval.
	WatchModePoll = "poll"
)

// Environment keys
const (
	envCodexHome       = "CODEX_HOME"
	envSessionsDir     = "CODEXHUD_SESSIONS_DIR"
	envAuthPath        = "CODEXHUD_AUTH_PATH"
	envStatePath       = "CODEXHUD_STATE_PATH"
	envDatabasePath    = "CODEXHUD_DATABASE_PATH"
	envRefreshInterval = "CODEXHUD_REFRESH_INTERVAL"
	envWatchDebounce   = "CODEXHUD_WATCH_DEBOUNCE"
	envWatchMode       = "CODEXHUD_WATCH_MODE"
	envTailBytes       = "CODEXHUD_TAIL_BYTES"
	envCritical        = "CODEXHUD_CRITICAL_PERCENT"
	envWarning         = "CODEXHUD_WARNING_PERCENT"
	envHelloModel      = "CODEXHUD_HELLO_MODEL"
	envCodexBin        = "CODEX_BIN"
	envNotifications   = "CODEXHUD_NOTIFICATIONS"
	envLogLevel        = "CODEXHUD_LOG_LEVEL"
	envLogFormat       = "CODEXHUD_LOG_FORMAT"
)
