// Package config defines the runtime configuration for the roomhub server
// and helpers to populate it from environment variables with sane defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds every tunable the server reads at startup.
type Config struct {
	Host           string
	Port           int
	StaticDir      string
	UploadDir      string
	HistoryLimit   int
	MaxMessageSize int64
	LogLevel       string
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Host:           "localhost",
		Port:           3000,
		StaticDir:      "static",
		UploadDir:      "static/uploads",
		HistoryLimit:   256,
		MaxMessageSize: 4096,
		LogLevel:       "info",
	}
}

// FromEnv builds a configuration from environment variables, falling back to
// defaults for anything unset or unparsable.
func FromEnv() Config {
	cfg := Default()

	if host := os.Getenv("ROOMHUB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("ROOMHUB_PORT"); port != "" {
		cfg.Port = parseInt(port, cfg.Port)
	}
	if dir := os.Getenv("ROOMHUB_STATIC_DIR"); dir != "" {
		cfg.StaticDir = dir
	}
	if dir := os.Getenv("ROOMHUB_UPLOAD_DIR"); dir != "" {
		cfg.UploadDir = dir
	}
	if limit := os.Getenv("ROOMHUB_HISTORY_LIMIT"); limit != "" {
		cfg.HistoryLimit = parseInt(limit, cfg.HistoryLimit)
	}
	if size := os.Getenv("ROOMHUB_MAX_MESSAGE_SIZE"); size != "" {
		cfg.MaxMessageSize = parseInt64(size, cfg.MaxMessageSize)
	}
	if level := os.Getenv("ROOMHUB_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	return cfg.Sanitize()
}

// Sanitize replaces out-of-range values with defaults and returns the result.
func (c Config) Sanitize() Config {
	def := Default()

	if c.Port <= 0 || c.Port > 65535 {
		c.Port = def.Port
	}
	if c.StaticDir == "" {
		c.StaticDir = def.StaticDir
	}
	if c.UploadDir == "" {
		c.UploadDir = def.UploadDir
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = def.HistoryLimit
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}

	return c
}

// Addr returns the host:port pair the HTTP server should bind to.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

func parseInt64(value string, fallback int64) int64 {
	if parsed, err := strconv.ParseInt(value, 10, 64); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}
