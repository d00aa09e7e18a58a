package cfg

type Cfg struct {
	// Store configuration
	StoreBackend string
	RedisAddr    string
	SQLitePath   string

	// Application configuration
	SourcesDir   string
	Port         string
	APIAccessKey string

	// Pipeline configuration
	PipelineInterval      int
	ScheduleRetentionDays int
	SchedulerInterval     int
	WorkerCount           int

	// Enrichment configuration
	SearchAPIKey    string
	SearchEngineID  string
	SearchSite      string
	LookupDelayMs   int
	ProfileCacheTTL int
	ScrapeCacheTTL  int
	CacheCapacity   int
	ScrapeRetries   int
	ScrapeBackoffMs int
	ScrapeTimeout   int

	// Sink configuration
	SheetsCredentials string
	SpreadsheetID     string
	SheetTab          string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
