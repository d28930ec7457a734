// Package config loads and validates the Clipify configuration.
//
// Configuration comes from an optional TOML file merged over built-in
// defaults. Secrets (the OpenRouter API key) are read from the environment
// only, never from the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Paths groups the workspace directory layout. All directories live under
// Workspace and double as the persisted record of pipeline progress.
type Paths struct {
	Workspace      string `toml:"workspace"`
	AcquisitionDir string `toml:"acquisition_dir"`
	TranscriptDir  string `toml:"transcript_dir"`
	OutputDir      string `toml:"output_dir"`
}

// Window bounds the highlight selection, in seconds.
type Window struct {
	MinSeconds     int `toml:"min_seconds"`
	MaxSeconds     int `toml:"max_seconds"`
	DefaultSeconds int `toml:"default_seconds"`
}

// Whisper configures the speech-recognition fallback source.
type Whisper struct {
	Bin      string `toml:"bin"`
	ModelDir string `toml:"model_dir"`
	// Models is the fixed priority list; the first model file present in
	// ModelDir is used.
	Models []string `toml:"models"`
}

// OpenRouter configures the semantic highlight scorer.
type OpenRouter struct {
	Model        string   `toml:"model"`
	BaseURL      string   `toml:"base_url"`
	AllowedHosts []string `toml:"allowed_hosts"`
}

// Tools holds external binary paths.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	YtDlp   string `toml:"yt_dlp"`
}

// Logging configures the slog handler.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Config struct {
	Paths      Paths      `toml:"paths"`
	Window     Window     `toml:"window"`
	Whisper    Whisper    `toml:"whisper"`
	OpenRouter OpenRouter `toml:"openrouter"`
	Tools      Tools      `toml:"tools"`
	Logging    Logging    `toml:"logging"`

	// OpenRouterAPIKey comes from the environment, not the file.
	OpenRouterAPIKey string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paths: Paths{
			Workspace:      ".clipify",
			AcquisitionDir: "acquisition",
			TranscriptDir:  "transcripts",
			OutputDir:      "shorts",
		},
		Window: Window{
			MinSeconds:     15,
			MaxSeconds:     120,
			DefaultSeconds: 60,
		},
		Whisper: Whisper{
			Bin:      "whisper-cli",
			ModelDir: ".clipify/models",
			Models: []string{
				"ggml-large-v3.bin",
				"ggml-medium.bin",
				"ggml-small.bin",
				"ggml-base.bin",
			},
		},
		OpenRouter: OpenRouter{
			Model:   "deepseek/deepseek-chat",
			BaseURL: "https://openrouter.ai",
		},
		Tools: Tools{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
			YtDlp:   "yt-dlp",
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the config file at path merged over defaults. A missing file
// is not an error when path is empty (no explicit file requested).
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = defaultConfigPath()
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.OpenRouterAPIKey = os.Getenv("OPENROUTER_API_KEY")
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "clipify", "config.toml")
	}
	return "clipify.toml"
}

func (c *Config) normalize() {
	c.Paths.Workspace = strings.TrimSpace(c.Paths.Workspace)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Window.DefaultSeconds == 0 {
		c.Window.DefaultSeconds = 60
	}
}

// Validate checks invariants that would otherwise surface mid-run.
func (c *Config) Validate() error {
	if c.Paths.Workspace == "" {
		return errors.New("config: workspace is empty")
	}
	if c.Window.MinSeconds <= 0 {
		return fmt.Errorf("config: window.min_seconds must be > 0, got %d", c.Window.MinSeconds)
	}
	if c.Window.MaxSeconds < c.Window.MinSeconds {
		return fmt.Errorf("config: window.max_seconds %d < min_seconds %d", c.Window.MaxSeconds, c.Window.MinSeconds)
	}
	if c.Window.DefaultSeconds < c.Window.MinSeconds || c.Window.DefaultSeconds > c.Window.MaxSeconds {
		return fmt.Errorf("config: window.default_seconds %d outside [%d,%d]",
			c.Window.DefaultSeconds, c.Window.MinSeconds, c.Window.MaxSeconds)
	}
	if len(c.Whisper.Models) == 0 {
		return errors.New("config: whisper.models priority list is empty")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: logging.format %q not supported", c.Logging.Format)
	}
	return nil
}

// AcquisitionPath returns the acquisition directory for a run.
func (c *Config) AcquisitionPath(runKey string) string {
	return filepath.Join(c.Paths.Workspace, c.Paths.AcquisitionDir, runKey)
}

// TranscriptPath returns the transcript directory for a run.
func (c *Config) TranscriptPath(runKey string) string {
	return filepath.Join(c.Paths.Workspace, c.Paths.TranscriptDir, runKey)
}

// OutputPath returns the output directory for a run.
func (c *Config) OutputPath(runKey string) string {
	return filepath.Join(c.Paths.Workspace, c.Paths.OutputDir, runKey)
}

// EnsureRunDirectories creates the per-run directory layout.
func (c *Config) EnsureRunDirectories(runKey string) error {
	for _, dir := range []string{
		c.AcquisitionPath(runKey),
		c.TranscriptPath(runKey),
		c.OutputPath(runKey),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure directory %s: %w", dir, err)
		}
	}
	return nil
}
