package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.General.Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", cfg.General.Workers)
	}
	if cfg.General.StateDir != ".precheck" {
		t.Errorf("StateDir = %q, want .precheck", cfg.General.StateDir)
	}
	if cfg.Timeout() != 5*time.Minute {
		t.Errorf("Timeout() = %v, want 5m", cfg.Timeout())
	}
	if cfg.Debounce() != 500*time.Millisecond {
		t.Errorf("Debounce() = %v, want 500ms", cfg.Debounce())
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.General.Catalogue != "precheck.yaml" {
		t.Errorf("Catalogue = %q, want default", cfg.General.Catalogue)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[general]
workers = 2
fail_fast = true
timeout_seconds = 60

[watch]
debounce_ms = 250
schedule = "0 * * * *"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.General.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.General.Workers)
	}
	if !cfg.General.FailFast {
		t.Error("FailFast = false, want true")
	}
	if cfg.Timeout() != time.Minute {
		t.Errorf("Timeout() = %v, want 1m", cfg.Timeout())
	}
	if cfg.Watch.Schedule != "0 * * * *" {
		t.Errorf("Schedule = %q, want hourly cron", cfg.Watch.Schedule)
	}
	if cfg.Debounce() != 250*time.Millisecond {
		t.Errorf("Debounce() = %v, want 250ms", cfg.Debounce())
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general\nworkers = "), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() accepted malformed TOML")
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		in   string
		want string
	}{
		{"~/cache", filepath.Join(home, "cache")},
		{"/abs/path", "/abs/path"},
		{"rel/path", "rel/path"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
