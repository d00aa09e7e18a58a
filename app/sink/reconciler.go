package sink

import (
	"context"
	"log/slog"
	"strings"

	"github.com/msavelyev/productscout/app/catalog"
)

const missingFieldPlaceholder = "-"

// Column order of exported rows. Name, maker and link also drive duplicate
// detection, so they stay in fixed positions.
var Header = []string{
	"Name", "Maker", "Link", "Category", "Tagline", "Website",
	"Profile", "Repository", "Launch Year", "Accelerator", "Added At",
}

const (
	colName  = 0
	colMaker = 1
	colLink  = 2
)

// Result reports one reconciliation attempt. A sink failure is a structured
// "not synced, retryable" outcome, never an error that could roll back the
// caller's local approval.
type Result struct {
	Synced    bool   `json:"synced"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Reconciler appends approved records to the sink, suppressing duplicates
// already present: a row matches when product name AND maker name both
// match, or when the normalized link matches. Either match counts as
// success-without-write.
type Reconciler struct {
	sink Sink
}

func NewReconciler(sink Sink) *Reconciler {
	return &Reconciler{sink: sink}
}

func (r *Reconciler) AddApprovedRecord(ctx context.Context, rec *catalog.Record) Result {
	if !r.sink.Available() {
		return Result{Synced: false, Error: "sink not configured"}
	}

	rows, err := r.sink.ReadRows(ctx)
	if err != nil {
		slog.Warn("Failed to read sink rows", "record", rec.ID, "error", err)
		return Result{Synced: false, Error: err.Error()}
	}

	if r.isDuplicate(rows, rec) {
		slog.Debug("Record already present in sink", "record", rec.ID, "link", rec.Link)
		return Result{Synced: true, Duplicate: true}
	}

	if err := r.sink.AppendRow(ctx, buildRow(rec)); err != nil {
		slog.Warn("Failed to append sink row", "record", rec.ID, "error", err)
		return Result{Synced: false, Error: err.Error()}
	}

	return Result{Synced: true}
}

func (r *Reconciler) isDuplicate(rows [][]string, rec *catalog.Record) bool {
	name := strings.ToLower(strings.TrimSpace(rec.Title))
	maker := strings.ToLower(strings.TrimSpace(rec.MakerName))

	for _, row := range rows {
		if len(row) <= colLink {
			continue
		}

		rowName := strings.ToLower(strings.TrimSpace(row[colName]))
		rowMaker := strings.ToLower(strings.TrimSpace(row[colMaker]))
		if name != "" && rowName == name && rowMaker == maker {
			return true
		}

		if rowLink, err := catalog.NormalizeLink(row[colLink]); err == nil && rowLink == rec.Link {
			return true
		}
	}

	return false
}

func buildRow(rec *catalog.Record) []string {
	orPlaceholder := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return missingFieldPlaceholder
		}
		return s
	}

	addedAt := missingFieldPlaceholder
	if !rec.CreatedAt.IsZero() {
		addedAt = rec.CreatedAt.Format("2006-01-02")
	}

	return []string{
		orPlaceholder(rec.Title),
		orPlaceholder(rec.MakerName),
		orPlaceholder(rec.Link),
		orPlaceholder(rec.Category),
		orPlaceholder(rec.Tagline),
		orPlaceholder(rec.Website),
		orPlaceholder(rec.ProfileURL),
		orPlaceholder(rec.RepoURL),
		orPlaceholder(rec.LaunchYear),
		orPlaceholder(rec.Accelerator),
		addedAt,
	}
}
