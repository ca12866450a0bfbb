// Package config provides configuration loading and structs for edusearch.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Notify  NotifyConfig  `yaml:"notify"`
	Watch   WatchConfig   `yaml:"watch"`
}

// WatchConfig holds data directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// AddDirectory appends dir unless an equal path is already watched. It reports whether dir was added.
func (w *WatchConfig) AddDirectory(dir string) bool {
	dir = filepath.Clean(dir)
	for _, d := range w.Directories {
		if filepath.Clean(d) == dir {
			return false
		}
	}
	w.Directories = append(w.Directories, dir)
	return true
}

// RemoveDirectory drops every entry equal to dir. It reports whether any was removed.
func (w *WatchConfig) RemoveDirectory(dir string) bool {
	dir = filepath.Clean(dir)
	kept := w.Directories[:0]
	for _, d := range w.Directories {
		if filepath.Clean(d) != dir {
			kept = append(kept, d)
		}
	}
	removed := len(kept) != len(w.Directories)
	w.Directories = kept
	return removed
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// StorageConfig selects the key/value backend and its paths.
type StorageConfig struct {
	Backend      string `yaml:"backend"`
	DatabasePath string `yaml:"database_path"`
	BadgerPath   string `yaml:"badger_path"`
}

// SearchConfig holds search, suggestion and history settings.
type SearchConfig struct {
	HistoryLimit     int `yaml:"history_limit"`
	SuggestMinLength int `yaml:"suggest_min_length"`
	SuggestLimit     int `yaml:"suggest_limit"`
	SuggestLabelMax  int `yaml:"suggest_label_max"`
	DebounceMillis   int `yaml:"debounce_ms"`
}

// Debounce returns the search-as-you-type delay.
func (s *SearchConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMillis) * time.Millisecond
}

// NotifyConfig holds auto-dismiss delays for user notifications.
type NotifyConfig struct {
	DismissMillis      int `yaml:"dismiss_ms"`
	ErrorDismissMillis int `yaml:"error_dismiss_ms"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BadgerPath = expandPath(cfg.Storage.BadgerPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Validate reports settings that defaults cannot repair.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendBadger, BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Search.SuggestLimit < 0 || c.Search.HistoryLimit < 0 {
		return fmt.Errorf("search limits must not be negative")
	}
	return nil
}

// Save writes the config to path. The watch command uses it to persist directory changes.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
