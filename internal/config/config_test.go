package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Window.MinSeconds != 15 || cfg.Window.MaxSeconds != 120 {
		t.Fatalf("unexpected window bounds: [%d,%d]", cfg.Window.MinSeconds, cfg.Window.MaxSeconds)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.toml")
	body := `
[paths]
workspace = "/tmp/clipify-test"

[window]
min_seconds = 20
max_seconds = 90
default_seconds = 45
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Paths.Workspace != "/tmp/clipify-test" {
		t.Fatalf("workspace not applied: %q", cfg.Paths.Workspace)
	}
	if cfg.Window.MaxSeconds != 90 {
		t.Fatalf("max_seconds not applied: %d", cfg.Window.MaxSeconds)
	}
	// untouched sections keep defaults
	if cfg.Tools.FFmpeg != "ffmpeg" {
		t.Fatalf("ffmpeg default lost: %q", cfg.Tools.FFmpeg)
	}
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate_Table(t *testing.T) {
	t.Parallel()

	mutate := []struct {
		name string
		fn   func(*Config)
		want string
	}{
		{"empty workspace", func(c *Config) { c.Paths.Workspace = "" }, "workspace"},
		{"zero min", func(c *Config) { c.Window.MinSeconds = 0 }, "min_seconds"},
		{"max below min", func(c *Config) { c.Window.MaxSeconds = 10 }, "max_seconds"},
		{"default outside bounds", func(c *Config) { c.Window.DefaultSeconds = 5 }, "default_seconds"},
		{"no models", func(c *Config) { c.Whisper.Models = nil }, "models"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "format"},
	}
	for _, tt := range mutate {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.fn(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
