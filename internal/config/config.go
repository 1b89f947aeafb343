// Package config provides configuration loading and management for hatgram.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete hatgram configuration
type Config struct {
	// CustomizationDir holds one override CSV per term domain.
	// Empty means defaults only.
	CustomizationDir string `yaml:"customization_dir"`
	// SettingsPath is the editor settings file carrying hat enablement.
	SettingsPath string `yaml:"settings_path"`
	// CreateMissing writes a defaults CSV for every domain without one.
	CreateMissing bool `yaml:"create_missing"`
	// DefaultsDir is an optional CUE package replacing the built-in tables.
	DefaultsDir string `yaml:"defaults_dir"`

	Reload  ReloadConfig  `yaml:"reload"`
	Grammar GrammarConfig `yaml:"grammar"`
	History HistoryConfig `yaml:"history"`
}

// ReloadConfig configures the hat style reload timers
type ReloadConfig struct {
	// Fast is the delay before the first reload after a settings change.
	Fast time.Duration `yaml:"fast"`
	// Slow is the delay before the confirming reload.
	Slow time.Duration `yaml:"slow"`
}

// GrammarConfig configures phrase parsing
type GrammarConfig struct {
	// FullLineNumbers enables "row N past M"; off leaves only "up N"/"down N".
	FullLineNumbers bool `yaml:"full_line_numbers"`
}

// HistoryConfig configures the utterance history log
type HistoryConfig struct {
	// DB is the sqlite path. Empty disables history.
	DB string `yaml:"db"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		CreateMissing: true,
		Reload: ReloadConfig{
			Fast: 500 * time.Millisecond,
			Slow: 10 * time.Second,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Reload.Fast <= 0 {
		return fmt.Errorf("reload.fast must be positive")
	}
	if c.Reload.Slow <= 0 {
		return fmt.Errorf("reload.slow must be positive")
	}
	if c.Reload.Fast > c.Reload.Slow {
		return fmt.Errorf("reload.fast (%s) must not exceed reload.slow (%s)", c.Reload.Fast, c.Reload.Slow)
	}
	if c.CustomizationDir != "" && c.CustomizationDir == c.SettingsPath {
		return fmt.Errorf("customization_dir and settings_path must differ")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file. Fields the file does
// not set keep their defaults. Unknown keys are an error.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	config := DefaultConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil {
		if errors.Is(err, io.EOF) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.resolvePaths(filepath.Dir(path))
	return config, nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values). Booleans can only be switched on by a merge.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.CustomizationDir != "" {
		c.CustomizationDir = other.CustomizationDir
	}
	if other.SettingsPath != "" {
		c.SettingsPath = other.SettingsPath
	}
	if other.CreateMissing {
		c.CreateMissing = true
	}
	if other.DefaultsDir != "" {
		c.DefaultsDir = other.DefaultsDir
	}

	// Reload
	if other.Reload.Fast != 0 {
		c.Reload.Fast = other.Reload.Fast
	}
	if other.Reload.Slow != 0 {
		c.Reload.Slow = other.Reload.Slow
	}

	// Grammar
	if other.Grammar.FullLineNumbers {
		c.Grammar.FullLineNumbers = true
	}

	// History
	if other.History.DB != "" {
		c.History.DB = other.History.DB
	}
}

// resolvePaths expands "~/" and makes relative paths relative to base.
func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{&c.CustomizationDir, &c.SettingsPath, &c.DefaultsDir, &c.History.DB} {
		*p = resolvePath(*p, base)
	}
}

func resolvePath(p, base string) string {
	if p == "" || p == ":memory:" {
		return p
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
		return p
	}
	if filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}
