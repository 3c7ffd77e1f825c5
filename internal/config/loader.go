package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TUMORSCOPE_"

// ConfigPaths lists the config file search paths in priority order.
var ConfigPaths = []string{
	"./.tumorscope.yaml",
	"~/.config/tumorscope/config.yaml",
}

// Loader merges configuration sources.
type Loader struct {
	configPaths []string
	envFiles    []string
	lookupEnv   func(string) (string, bool)
}

// NewLoader returns a loader using the standard search paths and ./.env.
func NewLoader() *Loader {
	return &Loader{
		configPaths: ConfigPaths,
		envFiles:    []string{".env"},
		lookupEnv:   os.LookupEnv,
	}
}

// fileConfig mirrors Config with pointer booleans so an absent key does not reset a
// default.
type fileConfig struct {
	Endpoint EndpointConfig `yaml:"endpoint"`
	UI       struct {
		AltScreen      *bool  `yaml:"alt_screen"`
		DropDir        string `yaml:"drop_dir"`
		ThumbnailWidth int    `yaml:"thumbnail_width"`
	} `yaml:"ui"`
	Storage StorageConfig `yaml:"storage"`
}

// LoadConfig loads configuration with this precedence, highest first:
// environment (including .env files), customPath or the search paths, defaults.
// Flags are applied by the caller afterwards.
func (l *Loader) LoadConfig(customPath string) (*Config, error) {
	cfg := DefaultConfig()

	if customPath != "" {
		if err := validateConfigPath(customPath); err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		if err := l.loadFromFile(cfg, expandPath(customPath)); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", customPath, err)
		}
	} else {
		for i := len(l.configPaths) - 1; i >= 0; i-- {
			path := expandPath(l.configPaths[i])
			if !fileExists(path) {
				continue
			}
			if err := l.loadFromFile(cfg, path); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", path, err)
			}
		}
	}

	if err := l.loadEnvFiles(); err != nil {
		return nil, err
	}
	if err := l.applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	merge(cfg, &fc)
	return nil
}

// loadEnvFiles exports .env entries that are not already set in the environment.
func (l *Loader) loadEnvFiles() error {
	existing := make([]string, 0, len(l.envFiles))
	for _, path := range l.envFiles {
		if fileExists(path) {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func (l *Loader) applyEnvOverrides(cfg *Config) error {
	envMappings := map[string]func(string) error{
		"ENDPOINT_BASE_URL":  func(v string) error { cfg.Endpoint.BaseURL = v; return nil },
		"ENDPOINT_PATH":      func(v string) error { cfg.Endpoint.Path = v; return nil },
		"ENDPOINT_TIMEOUT":   func(v string) error { return parseDuration(v, &cfg.Endpoint.Timeout) },
		"UI_ALT_SCREEN":      func(v string) error { return parseBool(v, &cfg.UI.AltScreen) },
		"UI_DROP_DIR":        func(v string) error { cfg.UI.DropDir = v; return nil },
		"UI_THUMBNAIL_WIDTH": func(v string) error { return parseInt(v, &cfg.UI.ThumbnailWidth) },
		"STORAGE_HISTORY":    func(v string) error { cfg.Storage.HistoryPath = v; return nil },
		"STORAGE_LOG_FILE":   func(v string) error { cfg.Storage.LogFile = v; return nil },
	}
	for key, setter := range envMappings {
		value, ok := l.lookupEnv(EnvPrefix + key)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if err := setter(strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("invalid value for %s%s: %w", EnvPrefix, key, err)
		}
	}
	return nil
}

func merge(dst *Config, src *fileConfig) {
	if src.Endpoint.BaseURL != "" {
		dst.Endpoint.BaseURL = src.Endpoint.BaseURL
	}
	if src.Endpoint.Path != "" {
		dst.Endpoint.Path = src.Endpoint.Path
	}
	if src.Endpoint.Timeout != 0 {
		dst.Endpoint.Timeout = src.Endpoint.Timeout
	}
	if src.UI.AltScreen != nil {
		dst.UI.AltScreen = *src.UI.AltScreen
	}
	if src.UI.DropDir != "" {
		dst.UI.DropDir = src.UI.DropDir
	}
	if src.UI.ThumbnailWidth != 0 {
		dst.UI.ThumbnailWidth = src.UI.ThumbnailWidth
	}
	if src.Storage.HistoryPath != "" {
		dst.Storage.HistoryPath = src.Storage.HistoryPath
	}
	if src.Storage.LogFile != "" {
		dst.Storage.LogFile = src.Storage.LogFile
	}
}

// FindConfigFile returns the first existing file on the search path.
func FindConfigFile() (string, bool) {
	for _, path := range ConfigPaths {
		expanded := expandPath(path)
		if fileExists(expanded) {
			return expanded, true
		}
	}
	return "", false
}

func validateConfigPath(path string) error {
	clean := filepath.Clean(path)
	if strings.Contains(clean, "..") {
		return errors.New("path traversal not allowed")
	}
	ext := strings.ToLower(filepath.Ext(clean))
	if ext != ".yaml" && ext != ".yml" {
		return errors.New("config file must have .yaml or .yml extension")
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func parseInt(s string, dst *int) error {
	val, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseBool(s string, dst *bool) error {
	val, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

func parseDuration(s string, dst *time.Duration) error {
	val, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}
