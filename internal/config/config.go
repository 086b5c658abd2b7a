package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	General GeneralConfig `toml:"general"`
	Watch   WatchConfig   `toml:"watch"`
}

// GeneralConfig holds run policy settings
type GeneralConfig struct {
	// Workers bounds per-phase parallelism (the mutating phase is always
	// serial regardless).
	Workers        int    `toml:"workers"`
	FailFast       bool   `toml:"fail_fast"`
	ChangedOnly    bool   `toml:"changed_only"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	StateDir       string `toml:"state_dir"`
	Catalogue      string `toml:"catalogue"`
}

// WatchConfig holds watch-mode settings
type WatchConfig struct {
	DebounceMS int `toml:"debounce_ms"`
	// Schedule is an optional cron expression for periodic full runs
	// while watching.
	Schedule string `toml:"schedule"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			Workers:        runtime.NumCPU(),
			TimeoutSeconds: 300,
			StateDir:       ".precheck",
			Catalogue:      "precheck.yaml",
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.General.StateDir = ExpandPath(cfg.General.StateDir)
	cfg.General.Catalogue = ExpandPath(cfg.General.Catalogue)

	if cfg.General.Workers < 1 {
		cfg.General.Workers = runtime.NumCPU()
	}
	if cfg.General.TimeoutSeconds < 1 {
		cfg.General.TimeoutSeconds = 300
	}
	if cfg.Watch.DebounceMS < 1 {
		cfg.Watch.DebounceMS = 500
	}

	return cfg, nil
}

// Timeout returns the global per-task timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.General.TimeoutSeconds) * time.Second
}

// Debounce returns the watch-mode debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location inside a
// repository.
func DefaultConfigPath(root string) string {
	return filepath.Join(root, ".precheck.toml")
}
