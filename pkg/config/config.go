// Package config holds asserter configuration and its YAML form.
// Nothing here is read implicitly: callers load a file only when
// they ask for it.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configuration value is out
// of range.
var ErrInvalidConfig = errors.New("invalid config")

// Failure line formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Log output formats.
const (
	LogNone    = "none"
	LogConsole = "console"
	LogJSON    = "json"
)

// Config controls how failed assertions are reported.
type Config struct {
	// Format selects the failure line format written to
	// standard output: "text" or "json".
	Format string `yaml:"format"`

	// FullPath prints the caller's full file path instead of
	// its base name.
	FullPath bool `yaml:"full_path"`

	// Log configures the structured logger. Log output goes to
	// standard error or to Log.Path.
	Log LogConfig `yaml:"log"`
}

// LogConfig configures structured logging of assertion events.
type LogConfig struct {
	// Format is "none", "console" or "json".
	Format string `yaml:"format"`

	// Level is the minimum level for JSON logs: debug, info,
	// warn or error.
	Level string `yaml:"level"`

	// Verbose enables debug entries.
	Verbose bool `yaml:"verbose"`

	// Path, when set, sends JSON logs to a file.
	Path string `yaml:"path,omitempty"`

	// Console also writes console logs to standard error while
	// JSON logs go to Path.
	Console bool `yaml:"console,omitempty"`
}

// Default returns the configuration matching the zero-setup
// behaviour: plain text lines, base file names, no logging.
func Default() Config {
	return Config{
		Format: FormatText,
		Log: LogConfig{
			Format: LogNone,
			Level:  "info",
		},
	}
}

// Validate checks every enumerated field.
func (c Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: format %q", ErrInvalidConfig, c.Format)
	}

	switch c.Log.Format {
	case LogNone, LogConsole, LogJSON:
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, c.Log.Format)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}

	if c.Log.Path != "" && c.Log.Format != LogJSON {
		return fmt.Errorf(
			"%w: log.path requires log.format %q",
			ErrInvalidConfig, LogJSON,
		)
	}
	if c.Log.Console && c.Log.Path == "" {
		return fmt.Errorf(
			"%w: log.console requires log.path", ErrInvalidConfig,
		)
	}
	return nil
}

// Parse decodes YAML on top of Default and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Write marshals the config to YAML and writes it to path.
func (c Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
