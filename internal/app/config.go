package app

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ConfigPath is the configuration document. When empty the default file
	// names are tried in WorkDir.
	ConfigPath string
	WorkDir    string

	LogFormat string
	LogLevel  string
	// LogFile additionally writes logs to a rotating file.
	LogFile string

	Workers int
	// LiveReloadPort enables the live-reload server in watch mode. 0 is
	// disabled.
	LiveReloadPort int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	if cfg.Workers < 0 {
		return nil, fmt.Errorf("invalid workers: %d must not be negative", cfg.Workers)
	}
	if cfg.LiveReloadPort < 0 || cfg.LiveReloadPort > 65535 {
		return nil, fmt.Errorf("invalid livereload-port: %d", cfg.LiveReloadPort)
	}

	return &cfg, nil
}
