// Package config loads the inbox client's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/nugget/thane-inbox/internal/paths"
)

// DefaultSearchPaths returns the config file search order:
// ./inbox.yaml, ~/.config/thane-inbox/config.yaml,
// /etc/thane-inbox/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"inbox.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "thane-inbox", "config.yaml"))
	}

	paths = append(paths, "/etc/thane-inbox/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all inbox configuration.
type Config struct {
	// Me is the identity id the client acts for.
	Me string `yaml:"me"`

	// Locale selects the date layout of forwarded-message headers
	// (BCP 47, e.g. "en-GB"). Defaults to en-US.
	Locale string `yaml:"locale"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text or json

	// DataDir holds the SQLite databases.
	DataDir string `yaml:"data_dir"`

	// SeedFile is a YAML fixture of identities and messages loaded at
	// startup. Optional.
	//
	// File paths may start with ~, "data:" (DataDir) or "config:" (the
	// directory of the config file).
	SeedFile string `yaml:"seed_file"`

	Directory DirectoryConfig `yaml:"directory"`
}

// DirectoryConfig configures the identity directory.
type DirectoryConfig struct {
	// VCardFile is imported into the directory at startup when set.
	VCardFile string `yaml:"vcard_file"`

	// SQLitePath is the directory database. Defaults to
	// data:directory.db.
	SQLitePath string `yaml:"sqlite_path"`

	// SearchLimit caps directory search results. Zero means no cap.
	SearchLimit int `yaml:"search_limit"`
}

// Load reads configuration from a YAML file, expanding environment
// variables, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	cfg.resolvePaths(filepath.Dir(path))

	return cfg, nil
}

// Default returns a configuration for a throwaway local session.
func Default() *Config {
	cfg := &Config{Me: "me"}
	cfg.ApplyDefaults()
	cfg.resolvePaths(".")
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Locale == "" {
		c.Locale = "en-US"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.Directory.SQLitePath == "" {
		c.Directory.SQLitePath = "data:directory.db"
	}
}

// resolvePaths expands ~ and the data: and config: prefixes in every
// file path.
func (c *Config) resolvePaths(configDir string) {
	c.DataDir = paths.ExpandHome(c.DataDir)
	r := paths.New(map[string]string{
		"data":   c.DataDir,
		"config": configDir,
	})
	for _, p := range []*string{&c.SeedFile, &c.Directory.VCardFile, &c.Directory.SQLitePath} {
		*p = r.Resolve(*p)
	}
}

// SettingsPath is where the settings database lives.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.db")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Me == "" {
		return fmt.Errorf("me is required")
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("locale %q: %w", c.Locale, err)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format %q (valid: text, json)", c.LogFormat)
	}
	if c.Directory.SearchLimit < 0 {
		return fmt.Errorf("directory.search_limit must be >= 0, got %d", c.Directory.SearchLimit)
	}
	return nil
}
