package pipeline

import (
	"time"

	"github.com/msavelyev/productscout/app/catalog"
	"github.com/msavelyev/productscout/app/enrich"
	"github.com/msavelyev/productscout/app/sink"
)

// RunSummary aggregates one pipeline run. Partial success is success: the
// per-item errors are listed but do not fail the run.
type RunSummary struct {
	Job       string        `json:"job"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`

	SourcesProcessed int `json:"sources_processed"`
	EntriesFetched   int `json:"entries_fetched"`
	EntriesDropped   int `json:"entries_dropped"`
	Duplicates       int `json:"duplicates"`
	NewRecords       int `json:"new_records"`

	ProfileResult enrich.BatchResult `json:"profile_result"`
	ScrapeResult  enrich.BatchResult `json:"scrape_result"`

	Errors []string `json:"errors,omitempty"`
}

// ApproveResult pairs the local approval with the best-effort sink outcome.
type ApproveResult struct {
	Record *catalog.Record `json:"record"`
	Sync   sink.Result     `json:"sync"`
}
