package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigCacheLoadValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	content := `
url: "https://example.com/feed.xml"
category: "devtools"

settings:
  enabled: true
  max_items: 25
  timeout: 15
`

	err := os.WriteFile(filepath.Join(tempDir, "launches.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	if configCache.GetConfigCount() != 1 {
		t.Errorf("Expected 1 config, got %d", configCache.GetConfigCount())
	}

	config, err := configCache.GetConfig("launches")
	if err != nil {
		t.Fatal(err)
	}

	if config.Name != "launches" {
		t.Errorf("Expected name 'launches', got '%s'", config.Name)
	}
	if config.URL != "https://example.com/feed.xml" {
		t.Errorf("Expected URL 'https://example.com/feed.xml', got '%s'", config.URL)
	}
	if config.Category != "devtools" {
		t.Errorf("Expected category 'devtools', got '%s'", config.Category)
	}
	if config.Settings.MaxItems != 25 {
		t.Errorf("Expected max items 25, got %d", config.Settings.MaxItems)
	}
	if config.Settings.Timeout != 15 {
		t.Errorf("Expected timeout 15, got %d", config.Settings.Timeout)
	}
}

func TestConfigCacheLoadConfigWithDefaults(t *testing.T) {
	tempDir := t.TempDir()

	content := `
url: "https://example.com/feed.xml"

settings:
  enabled: true
`

	err := os.WriteFile(filepath.Join(tempDir, "launches.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	config, err := configCache.GetConfig("launches")
	if err != nil {
		t.Fatal(err)
	}

	if config.Settings.Timeout != 30 {
		t.Errorf("Expected default timeout 30, got %d", config.Settings.Timeout)
	}
	if config.Settings.MaxItems != 100 {
		t.Errorf("Expected default max items 100, got %d", config.Settings.MaxItems)
	}
}

func TestConfigCacheInvalidConfig(t *testing.T) {
	tempDir := t.TempDir()

	// Missing source URL
	content := `
settings:
  enabled: true
`

	err := os.WriteFile(filepath.Join(tempDir, "broken.yml"), []byte(content), 0644)
	if err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	err = configCache.Run()
	if err == nil {
		t.Fatal("Expected error for config without URL")
	}
	if !strings.Contains(err.Error(), "URL is required") {
		t.Errorf("Expected URL validation error, got: %v", err)
	}
}

func TestConfigCacheMissingDirectory(t *testing.T) {
	configCache := NewConfigCache(filepath.Join(t.TempDir(), "does-not-exist"))

	if err := configCache.Run(); err != nil {
		t.Errorf("Expected missing sources dir to be tolerated, got: %v", err)
	}
	if configCache.GetConfigCount() != 0 {
		t.Errorf("Expected no configs, got %d", configCache.GetConfigCount())
	}
}

func TestGetEnabledConfigs(t *testing.T) {
	tempDir := t.TempDir()

	enabled := `
url: "https://example.com/a.xml"
settings:
  enabled: true
`
	disabled := `
url: "https://example.com/b.xml"
settings:
  enabled: false
`

	if err := os.WriteFile(filepath.Join(tempDir, "a.yml"), []byte(enabled), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, "b.yml"), []byte(disabled), 0644); err != nil {
		t.Fatal(err)
	}

	configCache := NewConfigCache(tempDir)
	if err := configCache.Run(); err != nil {
		t.Fatal(err)
	}

	configs := configCache.GetEnabledConfigs()
	if len(configs) != 1 {
		t.Fatalf("Expected 1 enabled config, got %d", len(configs))
	}
	if _, ok := configs["a"]; !ok {
		t.Error("Expected 'a' to be the enabled config")
	}
}

func TestGetConfigUnknownSource(t *testing.T) {
	configCache := NewConfigCache(t.TempDir())

	if _, err := configCache.GetConfig("nope"); err == nil {
		t.Error("Expected error for unknown source name")
	}
}
