package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testLoader(env map[string]string, envFiles ...string) *Loader {
	return &Loader{
		configPaths: nil,
		envFiles:    envFiles,
		lookupEnv: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := testLoader(nil).LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Endpoint.BaseURL != "http://localhost:8000" || cfg.Endpoint.Path != "/explain" {
		t.Fatalf("unexpected endpoint defaults: %+v", cfg.Endpoint)
	}
	if !cfg.UI.AltScreen || cfg.UI.ThumbnailWidth != 32 {
		t.Fatalf("unexpected ui defaults: %+v", cfg.UI)
	}
	if cfg.Endpoint.Timeout != 0 {
		t.Fatalf("timeout should default to unbounded, got %v", cfg.Endpoint.Timeout)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `endpoint:
  base_url: "https://mri.example.org"
  timeout: 90s
ui:
  drop_dir: /tmp/inbox
  thumbnail_width: 48
storage:
  history_path: /tmp/history.json
`)

	cfg, err := testLoader(nil).LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Endpoint.BaseURL != "https://mri.example.org" || cfg.Endpoint.Timeout != 90*time.Second {
		t.Fatalf("endpoint not merged: %+v", cfg.Endpoint)
	}
	if cfg.Endpoint.Path != "/explain" {
		t.Fatalf("path default lost: %q", cfg.Endpoint.Path)
	}
	if !cfg.UI.AltScreen {
		t.Fatal("absent alt_screen key should keep the default")
	}
	if cfg.UI.DropDir != "/tmp/inbox" || cfg.UI.ThumbnailWidth != 48 {
		t.Fatalf("ui not merged: %+v", cfg.UI)
	}
	if cfg.Storage.HistoryPath != "/tmp/history.json" {
		t.Fatalf("storage not merged: %+v", cfg.Storage)
	}
}

func TestLoadConfigExplicitFalse(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yml", "ui:\n  alt_screen: false\n")
	cfg, err := testLoader(nil).LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.UI.AltScreen {
		t.Fatal("explicit false should override the default")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "endpoint:\n  base_url: http://file:8000\n")
	cfg, err := testLoader(map[string]string{
		"TUMORSCOPE_ENDPOINT_BASE_URL": "http://env:9000",
		"TUMORSCOPE_ENDPOINT_TIMEOUT":  "30s",
		"TUMORSCOPE_UI_ALT_SCREEN":     "false",
	}).LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Endpoint.BaseURL != "http://env:9000" || cfg.Endpoint.Timeout != 30*time.Second || cfg.UI.AltScreen {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestEnvOverrideRejectsBadValue(t *testing.T) {
	_, err := testLoader(map[string]string{"TUMORSCOPE_UI_THUMBNAIL_WIDTH": "wide"}).LoadConfig("")
	if err == nil || !strings.Contains(err.Error(), "TUMORSCOPE_UI_THUMBNAIL_WIDTH") {
		t.Fatalf("expected env error, got %v", err)
	}
}

func TestDotEnvFileIsLoaded(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, "test.env", "TUMORSCOPE_ENDPOINT_PATH=/predict\n")
	t.Setenv("TUMORSCOPE_ENDPOINT_PATH", "")
	os.Unsetenv("TUMORSCOPE_ENDPOINT_PATH")

	loader := NewLoader()
	loader.configPaths = nil
	loader.envFiles = []string{envFile}
	cfg, err := loader.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Endpoint.Path != "/predict" {
		t.Fatalf("path = %q, want /predict", cfg.Endpoint.Path)
	}
}

func TestLoadConfigRejectsBadPaths(t *testing.T) {
	loader := testLoader(nil)
	if _, err := loader.LoadConfig("../secrets.yaml"); err == nil {
		t.Fatal("expected traversal error")
	}
	if _, err := loader.LoadConfig("config.json"); err == nil {
		t.Fatal("expected extension error")
	}
	if _, err := loader.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing file error")
	}
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "endpoint: [unterminated\n")
	if _, err := testLoader(nil).LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty url", func(c *Config) { c.Endpoint.BaseURL = "" }, true},
		{"ftp url", func(c *Config) { c.Endpoint.BaseURL = "ftp://host" }, true},
		{"no host", func(c *Config) { c.Endpoint.BaseURL = "http://" }, true},
		{"negative timeout", func(c *Config) { c.Endpoint.Timeout = -time.Second }, true},
		{"tiny thumbnail", func(c *Config) { c.UI.ThumbnailWidth = 2 }, true},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); (err != nil) != tt.wantErr {
			t.Fatalf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestInferenceConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Endpoint.BaseURL = "http://gpu:8000"
	ic := cfg.InferenceConfig()
	if ic.BaseURL != "http://gpu:8000" || ic.Path != "/explain" {
		t.Fatalf("unexpected inference config: %+v", ic)
	}
}
