package enrich

// BatchResult aggregates one worker pass over a batch of records. Per-record
// errors are collected here and never abort sibling records.
type BatchResult struct {
	Processed int      `json:"processed"`
	Updated   int      `json:"updated"`
	Cached    int      `json:"cached"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}
