// Package pipeline sequences the discovery run: gate check, fetch and
// normalize per source, admission, enrichment, run recording. A failure in
// one source's fetch or one record's enrichment never aborts the others.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/msavelyev/productscout/app/cache"
	"github.com/msavelyev/productscout/app/catalog"
	"github.com/msavelyev/productscout/app/enrich"
	"github.com/msavelyev/productscout/app/feed"
	"github.com/msavelyev/productscout/app/schedule"
	"github.com/msavelyev/productscout/app/sink"
)

type Runner struct {
	gate       *schedule.Gate
	sources    *feed.ConfigCache
	fetcher    *feed.Fetcher
	parser     *feed.Parser
	normalizer *catalog.Normalizer
	repo       *catalog.Repository
	profiles   *enrich.ProfileWorker
	scraper    *enrich.ScrapeWorker
	reconciler *sink.Reconciler
	cache      *cache.TwoTier
	retention  time.Duration

	// The gate only rate-limits; overlapping triggers for the same job are
	// excluded here.
	mu       sync.Mutex
	inFlight map[string]bool

	now func() time.Time
}

func NewRunner(gate *schedule.Gate, sources *feed.ConfigCache, fetcher *feed.Fetcher,
	parser *feed.Parser, normalizer *catalog.Normalizer, repo *catalog.Repository,
	profiles *enrich.ProfileWorker, scraper *enrich.ScrapeWorker,
	reconciler *sink.Reconciler, c *cache.TwoTier, retention time.Duration) *Runner {
	return &Runner{
		gate:       gate,
		sources:    sources,
		fetcher:    fetcher,
		parser:     parser,
		normalizer: normalizer,
		repo:       repo,
		profiles:   profiles,
		scraper:    scraper,
		reconciler: reconciler,
		cache:      c,
		retention:  retention,
		inFlight:   make(map[string]bool),
		now:        time.Now,
	}
}

func (r *Runner) tryBegin(job string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inFlight[job] {
		return false
	}
	r.inFlight[job] = true
	return true
}

func (r *Runner) end(job string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, job)
}

// Run executes one gated pipeline run for the named job.
func (r *Runner) Run(ctx context.Context, job string) (*RunSummary, error) {
	summary := &RunSummary{
		Job:       job,
		StartedAt: r.now().UTC(),
	}

	if !r.tryBegin(job) {
		summary.Skipped = true
		summary.Reason = "run already in progress"
		return summary, nil
	}
	defer r.end(job)

	decision := r.gate.ShouldRun(ctx, job)
	if !decision.ShouldRun {
		summary.Skipped = true
		summary.Reason = decision.Reason
		slog.Info("Pipeline run blocked", "job", job, "reason", decision.Reason)
		return summary, nil
	}

	newRecords := r.discover(ctx, summary)

	pending, err := r.pendingForProfileLookup(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("profile selection: %v", err))
	} else {
		summary.ProfileResult = r.profiles.Run(ctx, pending)
		summary.Errors = append(summary.Errors, summary.ProfileResult.Errors...)
	}

	summary.ScrapeResult = r.scraper.Run(ctx, newRecords)
	summary.Errors = append(summary.Errors, summary.ScrapeResult.Errors...)

	summary.Duration = r.now().UTC().Sub(summary.StartedAt)

	// Recorded regardless of partial failure, so the gate state reflects
	// the attempt.
	if err := r.gate.RecordRun(ctx, job, summarize(summary)); err != nil {
		slog.Error("Failed to record run", "job", job, "error", err)
		summary.Errors = append(summary.Errors, fmt.Sprintf("record run: %v", err))
	}

	if removed, err := r.gate.CleanupOld(ctx, r.retention); err != nil {
		slog.Warn("Schedule mark cleanup failed", "error", err)
	} else if removed > 0 {
		slog.Debug("Cleaned up old schedule marks", "removed", removed)
	}

	slog.Info("Pipeline run completed",
		"job", job,
		"duration", summary.Duration,
		"fetched", summary.EntriesFetched,
		"new", summary.NewRecords,
		"duplicates", summary.Duplicates,
		"dropped", summary.EntriesDropped,
		"errors", len(summary.Errors))

	return summary, nil
}

// discover fetches and admits entries for every enabled source, returning
// the newly created records. Per-source and per-entry failures are collected
// and do not abort the rest.
func (r *Runner) discover(ctx context.Context, summary *RunSummary) []*catalog.Record {
	var newRecords []*catalog.Record

	for name, source := range r.sources.GetEnabledConfigs() {
		data, err := r.fetcher.Fetch(ctx, source.URL, time.Duration(source.Settings.Timeout)*time.Second)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("source %s: %v", name, err))
			continue
		}

		entries, err := r.parser.Run(data)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("source %s: %v", name, err))
			continue
		}

		summary.SourcesProcessed++
		if len(entries) > source.Settings.MaxItems {
			entries = entries[:source.Settings.MaxItems]
		}
		summary.EntriesFetched += len(entries)

		for _, raw := range entries {
			normalized, err := r.normalizer.Run(raw, source.Category)
			if err != nil {
				slog.Debug("Dropping entry", "source", name, "error", err)
				summary.EntriesDropped++
				continue
			}

			rec, created, err := r.repo.Admit(ctx, normalized)
			if err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("source %s entry %s: %v", name, normalized.Link, err))
				continue
			}

			if created {
				summary.NewRecords++
				newRecords = append(newRecords, rec)
			} else {
				summary.Duplicates++
			}
		}
	}

	return newRecords
}

// pendingForProfileLookup selects pending records that have a maker name but
// no profile yet.
func (r *Runner) pendingForProfileLookup(ctx context.Context) ([]*catalog.Record, error) {
	pending, err := r.repo.ListByStatus(ctx, catalog.StatusPending)
	if err != nil {
		return nil, err
	}

	selected := pending[:0]
	for _, rec := range pending {
		if rec.ProfileURL == "" && strings.TrimSpace(rec.MakerName) != "" {
			selected = append(selected, rec)
		}
	}
	return selected, nil
}

// EnrichOne force-refreshes one record's scraped details.
func (r *Runner) EnrichOne(ctx context.Context, recordID string) (*catalog.Record, error) {
	return r.scraper.EnrichRecord(ctx, recordID, true)
}

// Approve marks the record approved locally, then best-effort syncs it to
// the sink. Sink failure never rolls back the approval; the record stays
// approved with SyncedToSink=false and is picked up by RetrySync later.
func (r *Runner) Approve(ctx context.Context, recordID string) (*ApproveResult, error) {
	rec, err := r.repo.Update(ctx, recordID, func(rec *catalog.Record) {
		rec.Status = catalog.StatusApproved
	})
	if err != nil {
		return nil, err
	}

	result := r.reconciler.AddApprovedRecord(ctx, rec)

	if result.Synced {
		now := r.now().UTC()
		if rec, err = r.repo.Update(ctx, recordID, func(rec *catalog.Record) {
			rec.SyncedToSink = true
			rec.SyncedAt = &now
		}); err != nil {
			return nil, err
		}
	}

	return &ApproveResult{Record: rec, Sync: result}, nil
}

func (r *Runner) Reject(ctx context.Context, recordID string) (*catalog.Record, error) {
	return r.repo.Update(ctx, recordID, func(rec *catalog.Record) {
		rec.Status = catalog.StatusRejected
	})
}

// RetrySync re-reconciles approved records that are not yet in the sink.
// Returns the number synced and the per-record errors encountered.
func (r *Runner) RetrySync(ctx context.Context) (int, []string) {
	approved, err := r.repo.ListByStatus(ctx, catalog.StatusApproved)
	if err != nil {
		return 0, []string{err.Error()}
	}

	synced := 0
	var errors []string

	for _, rec := range approved {
		if rec.SyncedToSink {
			continue
		}

		result := r.reconciler.AddApprovedRecord(ctx, rec)
		if !result.Synced {
			errors = append(errors, fmt.Sprintf("record %s: %s", rec.ID, result.Error))
			continue
		}

		now := r.now().UTC()
		if _, err := r.repo.Update(ctx, rec.ID, func(rec *catalog.Record) {
			rec.SyncedToSink = true
			rec.SyncedAt = &now
		}); err != nil {
			errors = append(errors, fmt.Sprintf("record %s: %v", rec.ID, err))
			continue
		}
		synced++
	}

	return synced, errors
}

func (r *Runner) CacheStats(ctx context.Context) (cache.Stats, error) {
	return r.cache.Stats(ctx)
}

func (r *Runner) ScheduleStatus(ctx context.Context, job string) schedule.Decision {
	return r.gate.Status(ctx, job)
}

func summarize(s *RunSummary) string {
	return fmt.Sprintf("fetched=%d new=%d duplicates=%d dropped=%d profile_updated=%d scraped=%d errors=%d",
		s.EntriesFetched, s.NewRecords, s.Duplicates, s.EntriesDropped,
		s.ProfileResult.Updated, s.ScrapeResult.Updated, len(s.Errors))
}
