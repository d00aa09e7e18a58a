package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestGetPanicsWhenUnloaded(t *testing.T) {
	original := globalCfg
	defer func() {
		globalCfg = original
		if r := recover(); r == nil {
			t.Error("Expected Get to panic before Load")
		}
	}()

	globalCfg = nil
	Get()
}

func TestSetReplacesGlobalConfig(t *testing.T) {
	original := globalCfg
	defer Set(original)

	Set(&Cfg{Port: "9090"})
	if Get().Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", Get().Port)
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		StoreBackend:          "redis",
		RedisAddr:             "localhost:6379",
		SQLitePath:            "./test.db",
		SourcesDir:            "./sources",
		Port:                  "8080",
		APIAccessKey:          "test-key",
		PipelineInterval:      21600,
		ScheduleRetentionDays: 30,
		SearchAPIKey:          "search-key",
		SearchEngineID:        "engine-id",
		SearchSite:            "linkedin.com/in",
		LookupDelayMs:         1500,
		ProfileCacheTTL:       168,
		ScrapeCacheTTL:        72,
		CacheCapacity:         500,
		ScrapeRetries:         3,
		SheetTab:              "Products",
		UserAgent:             "Test Agent",
		Timezone:              "UTC",
		Debug:                 true,
	}

	if cfg.StoreBackend != "redis" {
		t.Errorf("Expected store backend 'redis', got '%s'", cfg.StoreBackend)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("Expected redis addr 'localhost:6379', got '%s'", cfg.RedisAddr)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if cfg.PipelineInterval != 21600 {
		t.Errorf("Expected pipeline interval 21600, got %d", cfg.PipelineInterval)
	}
	if cfg.SearchSite != "linkedin.com/in" {
		t.Errorf("Expected search site 'linkedin.com/in', got '%s'", cfg.SearchSite)
	}
	if cfg.ProfileCacheTTL != 168 {
		t.Errorf("Expected profile cache TTL 168, got %d", cfg.ProfileCacheTTL)
	}
	if cfg.ScrapeRetries != 3 {
		t.Errorf("Expected scrape retries 3, got %d", cfg.ScrapeRetries)
	}
	if cfg.SheetTab != "Products" {
		t.Errorf("Expected sheet tab 'Products', got '%s'", cfg.SheetTab)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Expected timezone 'UTC', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}

func TestApplyTimezone(t *testing.T) {
	if err := applyTimezone("UTC"); err != nil {
		t.Errorf("Expected UTC to be valid, got: %v", err)
	}
	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected error for invalid timezone")
	}
}
