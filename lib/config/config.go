// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon configuration.
type Config struct {
	// Device configures the teleprinter connection.
	Device DeviceConfig `yaml:"device"`

	// FeedsFile is the path of the JSONC feed catalog. The daemon
	// watches it and applies edits without restarting.
	FeedsFile string `yaml:"feeds_file"`

	// JournalDir is where printed items are recorded. Empty disables
	// the journal.
	JournalDir string `yaml:"journal_dir"`

	// ControlSocket is the Unix socket path teleprint-call connects
	// to. Empty disables the control listener.
	ControlSocket string `yaml:"control_socket"`

	// LogLevel is the slog level: debug, info, warn, or error.
	LogLevel string `yaml:"log_level"`
}

// DeviceConfig configures the teleprinter connection.
type DeviceConfig struct {
	// Port is the serial device path, or "console" for the on-screen
	// teletype.
	Port string `yaml:"port"`

	// Charset selects the code table: "ustty" or "ita2".
	Charset string `yaml:"charset"`

	// Baud is the line rate: 45 for 60-speed US machines, 50 for
	// European ones. Ignored by the console device.
	Baud int `yaml:"baud"`

	// FlushDelay is how long the transport lets the line sit idle
	// before flushing a partial batch, as a duration string.
	// Default: 500ms
	FlushDelay string `yaml:"flush_delay"`
}

// Default returns the default configuration: the console device at US
// teletype speed, no journal, control socket under /run.
// These defaults are a base for the config file, not a substitute for
// it - the file is still required.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Port:       "console",
			Charset:    "ustty",
			Baud:       45,
			FlushDelay: "500ms",
		},
		FeedsFile:     "feeds.jsonc",
		ControlSocket: "/run/teleprint/control.sock",
		LogLevel:      "info",
	}
}

// Load loads configuration from the TELEPRINT_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if TELEPRINT_CONFIG is not set,
// this fails.
func Load() (*Config, error) {
	path := os.Getenv("TELEPRINT_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("TELEPRINT_CONFIG environment variable not set; " +
			"set it to the path of your teleprint.yaml config file, or use --config flag")
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values; the only expansion performed is
// ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Device.Port = expandVars(c.Device.Port, vars)
	c.FeedsFile = expandVars(c.FeedsFile, vars)
	c.JournalDir = expandVars(c.JournalDir, vars)
	c.ControlSocket = expandVars(c.ControlSocket, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Charsets lists the accepted device.charset values.
var Charsets = []string{"ustty", "ita2"}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Device.Port == "" {
		errs = append(errs, fmt.Errorf("device.port is required"))
	}
	if !slices.Contains(Charsets, strings.ToLower(c.Device.Charset)) {
		errs = append(errs, fmt.Errorf("device.charset must be one of: %v", Charsets))
	}
	if c.Device.Baud <= 0 {
		errs = append(errs, fmt.Errorf("device.baud must be positive"))
	}
	if delay, err := time.ParseDuration(c.Device.FlushDelay); err != nil {
		errs = append(errs, fmt.Errorf("device.flush_delay: %v", err))
	} else if delay <= 0 {
		errs = append(errs, fmt.Errorf("device.flush_delay must be positive"))
	}
	if c.FeedsFile == "" {
		errs = append(errs, fmt.Errorf("feeds_file is required"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SlogLevel parses LogLevel into a slog level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %q is not debug, info, warn, or error", c.LogLevel)
	}
	return level, nil
}

// FlushDelayDuration returns the parsed FlushDelay. Values Validate
// would reject fall back to the 500ms default.
func (d DeviceConfig) FlushDelayDuration() time.Duration {
	delay, err := time.ParseDuration(d.FlushDelay)
	if err != nil || delay <= 0 {
		return 500 * time.Millisecond
	}
	return delay
}
