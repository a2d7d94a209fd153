// Package config loads the gmail2md configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type AuthConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

type ExportConfig struct {
	OutputDir      string `toml:"output_dir"`
	OrganizeByDate bool   `toml:"organize_by_date"`
	DateBucket     string `toml:"date_bucket"` // year, year-month, year-month-day
	CreateIndex    bool   `toml:"create_index"`
	Overwrite      bool   `toml:"overwrite"`
	WrapWidth      int    `toml:"wrap_width"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type MetricsConfig struct {
	Enabled         bool `toml:"enabled"`
	IntervalSeconds int  `toml:"interval_seconds"`
}

type Config struct {
	Auth    AuthConfig    `toml:"auth"`
	Export  ExportConfig  `toml:"export"`
	Logging LoggingConfig `toml:"logging"`
	History HistoryConfig `toml:"history"`
	Metrics MetricsConfig `toml:"metrics"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			OutputDir:   "exported_emails",
			DateBucket:  "year-month",
			CreateIndex: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Metrics: MetricsConfig{
			IntervalSeconds: 60,
		},
	}
}

// DefaultPath returns the conventional config file location
// ($XDG_CONFIG_HOME/gmail2md/config.toml or the platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "gmail2md", "config.toml")
}

// Load reads the config file at path, applying defaults for anything
// unset. A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return config, nil
}

// Validate checks field values that have a closed set of options.
func (c *Config) Validate() error {
	switch c.Export.DateBucket {
	case "", "year", "year-month", "year-month-day":
	default:
		return fmt.Errorf("invalid date_bucket %q (want year, year-month or year-month-day)", c.Export.DateBucket)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", c.Logging.Format)
	}
	if c.Export.WrapWidth < 0 {
		return fmt.Errorf("wrap_width must not be negative")
	}
	return nil
}

// HistoryPath returns the configured history database path, or the
// conventional default under the user cache directory.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "gmail2md_history.db"
	}
	return filepath.Join(dir, "gmail2md", "history.db")
}
