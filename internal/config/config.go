// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

// Package config loads hostbind configuration.
//
// Values come from, in increasing precedence: built-in defaults, an
// optional YAML file, and command-line flags that were set explicitly.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/hostbind/hostbind/internal/xdg"
)

// Config is the full configuration.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
	Engine  EngineConfig  `koanf:"engine"`
	Script  ScriptConfig  `koanf:"script"`
}

// LogConfig selects the log output.
type LogConfig struct {
	// Format is "json" or "text".
	Format string `koanf:"format"`
	// Level is "debug", "info", "warn" or "error".
	Level string `koanf:"level"`
}

// MetricsConfig controls the metrics and health endpoint.
type MetricsConfig struct {
	// Addr is the listen address; empty disables the endpoint.
	Addr string `koanf:"addr"`
}

// EngineConfig selects the simulated host.
type EngineConfig struct {
	// API is the path of an API description. Empty uses the built-in one.
	API string `koanf:"api"`
}

// ScriptConfig applies to every script run.
type ScriptConfig struct {
	// Capabilities are the default capability grants.
	Capabilities []string      `koanf:"capabilities"`
	Timeout      time.Duration `koanf:"timeout"`
}

// Default values.
const (
	DefaultLogFormat     = "text"
	DefaultLogLevel      = "info"
	DefaultScriptTimeout = 5 * time.Second
)

var defaults = map[string]any{
	"log.format":          DefaultLogFormat,
	"log.level":           DefaultLogLevel,
	"metrics.addr":        "",
	"engine.api":          "",
	"script.capabilities": []string{"**"},
	"script.timeout":      DefaultScriptTimeout.String(),
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"log-format":     "log.format",
	"log-level":      "log.level",
	"metrics-addr":   "metrics.addr",
	"api":            "engine.api",
	"capability":     "script.capabilities",
	"script-timeout": "script.timeout",
}

// DefaultPath is the configuration file read when none is named.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigDir(), "config.yaml")
}

// BindFlags declares the flags Load understands.
func BindFlags(flags *pflag.FlagSet) {
	flags.String("log-format", DefaultLogFormat, "log format (json or text)")
	flags.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("metrics-addr", "", "metrics/health HTTP address (empty = disabled)")
	flags.String("api", "", "API description file (default: built-in)")
	flags.StringSlice("capability", []string{"**"}, "capability granted to scripts (repeatable)")
	flags.Duration("script-timeout", DefaultScriptTimeout, "maximum run time of a script (0 = unlimited)")
}

// Load reads the configuration. path names a YAML file; when empty the
// default path is used if it exists. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, oops.In("config").Code("CONFIG_INVALID").With("key", key).Wrap(err)
		}
	}

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := loadFile(k, path, explicit); err != nil {
		return nil, err
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.In("config").Code("CONFIG_INVALID").Wrapf(err, "load flags")
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.In("config").Code("CONFIG_INVALID").Wrapf(err, "decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return oops.In("config").Code("CONFIG_INVALID").With("path", path).Wrap(err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return oops.In("config").Code("CONFIG_INVALID").With("path", path).Wrapf(err, "parse config file")
	}
	return nil
}

var (
	logFormats = []string{"json", "text"}
	logLevels  = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	errb := oops.In("config").Code("CONFIG_INVALID")
	if !slices.Contains(logFormats, c.Log.Format) {
		return errb.With("key", "log.format").
			Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, ok := logLevels[c.Log.Level]; !ok {
		return errb.With("key", "log.level").
			Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.Script.Timeout < 0 {
		return errb.With("key", "script.timeout").
			Errorf("script.timeout cannot be negative, got %s", c.Script.Timeout)
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	return logLevels[c.Log.Level]
}
