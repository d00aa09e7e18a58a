package catalog

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Record is a discovered product listing. The normalized source link is the
// natural identity key: two entries pointing at the same normalized link are
// the same record regardless of title. Enrichment fields are filled
// progressively and stay empty until a worker resolves them.
type Record struct {
	ID          string    `json:"id"`
	Link        string    `json:"link"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	MakerName   string    `json:"maker_name,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Status      Status    `json:"status"`

	// Enrichment fields
	ProfileURL  string   `json:"profile_url,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	Website     string   `json:"website,omitempty"`
	Tagline     string   `json:"tagline,omitempty"`
	LaunchYear  string   `json:"launch_year,omitempty"`
	Accelerator string   `json:"accelerator,omitempty"`
	RepoURL     string   `json:"repo_url,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`

	EnrichedAt *time.Time `json:"enriched_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SyncedToSink bool       `json:"synced_to_sink"`
	SyncedAt     *time.Time `json:"synced_at,omitempty"`
}

// RawEntry is one feed entry before normalization.
type RawEntry struct {
	Title       string
	Link        string
	Description string
	Content     string
	Author      string
	Categories  []string
	PublishedAt time.Time
}

// NormalizedEntry is the output of the normalizer: the identity key plus the
// cleaned fields used to create a record.
type NormalizedEntry struct {
	Link        string
	Title       string
	Description string
	MakerName   string
	Category    string
	PublishedAt time.Time
}
