// Package config loads the optional YAML run configuration.
package config

import (
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

type MariaDBConfig struct {
	DSN    string `yaml:"dsn,omitempty"`
	Device string `yaml:"device,omitempty"`
}

// Config holds the settings shared by every subcommand. Command-line flags
// that are explicitly set take precedence over these values.
type Config struct {
	LogLevel    string         `yaml:"log_level,omitempty"`
	LogFile     string         `yaml:"log_file,omitempty"`
	MetricsFile string         `yaml:"metrics_file,omitempty"`
	SentryDSN   string         `yaml:"sentry_dsn,omitempty"`
	Delimiter   string         `yaml:"delimiter,omitempty"`
	CharLimits  map[string]int `yaml:"char_limits,omitempty"`
	MariaDB     MariaDBConfig  `yaml:"mariadb,omitempty"`
}

func Default() *Config {
	return &Config{
		LogLevel:  "INFO",
		Delimiter: ";",
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if _, err := cfg.DelimiterRune(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DelimiterRune returns the single-character field delimiter.
func (c *Config) DelimiterRune() (rune, error) {
	r, size := utf8.DecodeRuneInString(c.Delimiter)
	if size == 0 || size != len(c.Delimiter) || r == utf8.RuneError || r == '\n' || r == '\r' || r == '"' {
		return 0, fmt.Errorf("invalid delimiter %q: must be a single character", c.Delimiter)
	}
	return r, nil
}
