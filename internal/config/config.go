// Package config loads tumorscope settings from defaults, YAML files, .env files,
// environment variables and command-line overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/csheth/tumorscope/internal/inference"
)

// Config holds the complete application configuration.
type Config struct {
	Endpoint EndpointConfig `yaml:"endpoint"`
	UI       UIConfig       `yaml:"ui"`
	Storage  StorageConfig  `yaml:"storage"`
}

// EndpointConfig describes the inference service.
type EndpointConfig struct {
	BaseURL string        `yaml:"base_url"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"` // zero disables the per-request bound
}

// UIConfig configures the terminal interface.
type UIConfig struct {
	AltScreen      bool   `yaml:"alt_screen"`
	DropDir        string `yaml:"drop_dir"`
	ThumbnailWidth int    `yaml:"thumbnail_width"`
}

// StorageConfig configures local files.
type StorageConfig struct {
	HistoryPath string `yaml:"history_path"`
	LogFile     string `yaml:"log_file"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			BaseURL: "http://localhost:8000",
			Path:    inference.DefaultPath,
		},
		UI: UIConfig{
			AltScreen:      true,
			ThumbnailWidth: 32,
		},
		Storage: StorageConfig{
			HistoryPath: filepath.Join(".", "tumorscope-history.json"),
			LogFile:     filepath.Join(os.TempDir(), "tumorscope.log"),
		},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	base := strings.TrimSpace(c.Endpoint.BaseURL)
	if base == "" {
		return errors.New("endpoint.base_url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("endpoint.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("endpoint.base_url must use http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("endpoint.base_url is missing a host")
	}
	if c.Endpoint.Timeout < 0 {
		return errors.New("endpoint.timeout must not be negative")
	}
	if c.UI.ThumbnailWidth < 8 || c.UI.ThumbnailWidth > 160 {
		return fmt.Errorf("ui.thumbnail_width must be between 8 and 160, got %d", c.UI.ThumbnailWidth)
	}
	return nil
}

// InferenceConfig converts the endpoint section into a client configuration.
func (c *Config) InferenceConfig() inference.Config {
	return inference.Config{
		BaseURL: c.Endpoint.BaseURL,
		Path:    c.Endpoint.Path,
	}
}
