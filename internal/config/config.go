package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds landingd runtime settings.
type Config struct {
	ListenAddr      string
	NamespacePath   string
	RemoteBaseURL   string
	RemoteTimeout   time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
}

// Default returns the baseline configuration before file overlay.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		NamespacePath:   "/drone-landing",
		RemoteBaseURL:   "http://127.0.0.1:3000",
		RemoteTimeout:   10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		LogLevel:        "info",
	}
}

// fileConfig maps config.toml keys onto runtime settings. Durations are
// expressed in whole seconds in the file.
type fileConfig struct {
	ListenAddr         string `toml:"listen_addr"`
	NamespacePath      string `toml:"namespace_path"`
	RemoteBaseURL      string `toml:"remote_base_url"`
	RemoteTimeoutSec   int    `toml:"remote_timeout_seconds"`
	ShutdownTimeoutSec int    `toml:"shutdown_timeout_seconds"`
	LogLevel           string `toml:"log_level"`
}

// Load decodes a TOML file and overlays only the keys it defines onto the
// defaults, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("namespace_path") {
		cfg.NamespacePath = strings.TrimSpace(raw.NamespacePath)
	}
	if meta.IsDefined("remote_base_url") {
		cfg.RemoteBaseURL = strings.TrimSpace(raw.RemoteBaseURL)
	}
	if meta.IsDefined("remote_timeout_seconds") {
		cfg.RemoteTimeout = time.Duration(raw.RemoteTimeoutSec) * time.Second
	}
	if meta.IsDefined("shutdown_timeout_seconds") {
		cfg.ShutdownTimeout = time.Duration(raw.ShutdownTimeoutSec) * time.Second
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations landingd cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("config missing listen_addr")
	}
	if !strings.HasPrefix(c.NamespacePath, "/") {
		return fmt.Errorf("config namespace_path must begin with '/': %q", c.NamespacePath)
	}
	u, err := url.Parse(c.RemoteBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config remote_base_url invalid: %q", c.RemoteBaseURL)
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("config remote_timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config shutdown_timeout must be positive")
	}
	return nil
}
