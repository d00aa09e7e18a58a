package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Store configuration
	StoreBackend string `long:"store" env:"STORE_BACKEND" default:"sqlite" choice:"sqlite" choice:"redis" description:"Record store backend"`
	RedisAddr    string `long:"redis-addr" env:"REDIS_ADDR" default:"localhost:6379" description:"Redis address (store=redis)"`
	SQLitePath   string `long:"sqlite-path" env:"SQLITE_PATH" default:"./productscout.db" description:"SQLite database path (store=sqlite)"`

	// Application configuration
	SourcesDir   string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Pipeline configuration
	PipelineInterval      int `long:"pipeline-interval" env:"PIPELINE_INTERVAL" default:"21600" description:"Minimum seconds between pipeline runs per job"`
	ScheduleRetentionDays int `long:"schedule-retention-days" env:"SCHEDULE_RETENTION_DAYS" default:"30" description:"Days to keep schedule marks"`
	SchedulerInterval     int `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"300" description:"Seconds between background scheduler ticks"`
	WorkerCount           int `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background task workers"`

	// Enrichment configuration
	SearchAPIKey    string `long:"search-api-key" env:"SEARCH_API_KEY" description:"Profile lookup API key"`
	SearchEngineID  string `long:"search-engine-id" env:"SEARCH_ENGINE_ID" description:"Profile lookup search engine ID"`
	SearchSite      string `long:"search-site" env:"SEARCH_SITE" default:"linkedin.com/in" description:"Site restriction for profile lookups"`
	LookupDelayMs   int    `long:"lookup-delay-ms" env:"LOOKUP_DELAY_MS" default:"1500" description:"Delay between profile lookup calls in milliseconds"`
	ProfileCacheTTL int    `long:"profile-cache-ttl" env:"PROFILE_CACHE_TTL" default:"168" description:"Profile lookup cache TTL in hours"`
	ScrapeCacheTTL  int    `long:"scrape-cache-ttl" env:"SCRAPE_CACHE_TTL" default:"72" description:"Detail scrape cache TTL in hours"`
	CacheCapacity   int    `long:"cache-capacity" env:"CACHE_CAPACITY" default:"500" description:"In-memory cache tier capacity"`
	ScrapeRetries   int    `long:"scrape-retries" env:"SCRAPE_RETRIES" default:"3" description:"Detail scrape retry budget"`
	ScrapeBackoffMs int    `long:"scrape-backoff-ms" env:"SCRAPE_BACKOFF_MS" default:"2000" description:"Detail scrape backoff step in milliseconds"`
	ScrapeTimeout   int    `long:"scrape-timeout" env:"SCRAPE_TIMEOUT" default:"30" description:"Detail scrape request timeout in seconds"`

	// Sink configuration
	SheetsCredentials string `long:"sheets-credentials" env:"SHEETS_CREDENTIALS" description:"Google service account credentials file for the sink (optional)"`
	SpreadsheetID     string `long:"spreadsheet-id" env:"SPREADSHEET_ID" description:"Sink spreadsheet ID (optional)"`
	SheetTab          string `long:"sheet-tab" env:"SHEET_TAB" default:"Products" description:"Sink spreadsheet tab name"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"ProductScout/1.0" description:"User agent string for feed requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		StoreBackend:          raw.StoreBackend,
		RedisAddr:             raw.RedisAddr,
		SQLitePath:            raw.SQLitePath,
		SourcesDir:            raw.SourcesDir,
		Port:                  raw.Port,
		APIAccessKey:          raw.APIAccessKey,
		PipelineInterval:      raw.PipelineInterval,
		ScheduleRetentionDays: raw.ScheduleRetentionDays,
		SchedulerInterval:     raw.SchedulerInterval,
		WorkerCount:           raw.WorkerCount,
		SearchAPIKey:          raw.SearchAPIKey,
		SearchEngineID:        raw.SearchEngineID,
		SearchSite:            raw.SearchSite,
		LookupDelayMs:         raw.LookupDelayMs,
		ProfileCacheTTL:       raw.ProfileCacheTTL,
		ScrapeCacheTTL:        raw.ScrapeCacheTTL,
		CacheCapacity:         raw.CacheCapacity,
		ScrapeRetries:         raw.ScrapeRetries,
		ScrapeBackoffMs:       raw.ScrapeBackoffMs,
		ScrapeTimeout:         raw.ScrapeTimeout,
		SheetsCredentials:     raw.SheetsCredentials,
		SpreadsheetID:         raw.SpreadsheetID,
		SheetTab:              raw.SheetTab,
		UserAgent:             raw.UserAgent,
		Timezone:              raw.Timezone,
		Debug:                 raw.Debug,
		Version:               GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Intended for tests.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return err
		}
		time.Local = loc
	}
	return nil
}
