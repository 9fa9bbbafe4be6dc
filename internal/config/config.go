// Package config loads settings for the CLI and the HTTP server: a JSON
// config file for the CLI, and environment-based auth settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/resume-layout/internal/types"
)

// Exporter names accepted by Config.Exporter.
const (
	ExporterCanvas = "canvas"
	ExporterChrome = "chrome"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; flags given on the command line win.
type Config struct {
	// Layout
	Mode     string  `json:"mode,omitempty"`     // "standard" or "compact"
	Exporter string  `json:"exporter,omitempty"` // "canvas" or "chrome"
	Width    float64 `json:"width,omitempty"`    // Preview container width in CSS px
	Verify   bool    `json:"verify,omitempty"`   // Check the exported page count

	// Services
	Port        int    `json:"port,omitempty"`
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	UploadDir   string `json:"upload_dir,omitempty"`
	ChromePath  string `json:"chrome_path,omitempty"`

	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Mode:      string(types.LayoutStandard),
		Exporter:  ExporterCanvas,
		Port:      8080,
		UploadDir: "uploads",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values. Empty fields are
// valid; they are filled by MergeWithDefaults.
func (c *Config) Validate() error {
	switch types.LayoutMode(c.Mode) {
	case "", types.LayoutStandard, types.LayoutCompact:
	default:
		return fmt.Errorf("config error: unknown mode %q", c.Mode)
	}

	switch c.Exporter {
	case "", ExporterCanvas, ExporterChrome:
	default:
		return fmt.Errorf("config error: unknown exporter %q", c.Exporter)
	}

	if c.Width < 0 {
		return fmt.Errorf("config error: 'width' must be non-negative")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}

	if c.ChromePath != "" {
		if _, err := os.Stat(c.ChromePath); os.IsNotExist(err) {
			return fmt.Errorf("config error: chrome binary not found: %s", c.ChromePath)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Mode == "" {
		result.Mode = defaults.Mode
	}
	if result.Exporter == "" {
		result.Exporter = defaults.Exporter
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.UploadDir == "" {
		result.UploadDir = defaults.UploadDir
	}
	if result.ChromePath == "" {
		result.ChromePath = defaults.ChromePath
	}

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Width == 0 {
		result.Width = defaults.Width
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
