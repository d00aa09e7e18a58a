// Package schedule implements the run gate: per-job last-run bookkeeping
// that rate-limits pipeline runs by elapsed time. It does not mutually
// exclude overlapping runs; the orchestrator holds its own in-flight lock.
package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/msavelyev/productscout/app/store"
)

const markKeyPrefix = "schedule:"

// Mark records the last completed run attempt for a named job.
type Mark struct {
	Job     string    `json:"job"`
	RanAt   time.Time `json:"ran_at"`
	Summary string    `json:"summary"`
}

// Decision is the outcome of a ShouldRun check.
type Decision struct {
	ShouldRun     bool          `json:"should_run"`
	Reason        string        `json:"reason"`
	LastRun       *Mark         `json:"last_run,omitempty"`
	Elapsed       time.Duration `json:"elapsed,omitempty"`
	NextAllowedAt time.Time     `json:"next_allowed_at,omitempty"`
}

type Gate struct {
	store    store.Store
	interval time.Duration
	now      func() time.Time
}

func NewGate(s store.Store, interval time.Duration) *Gate {
	return &Gate{
		store:    s,
		interval: interval,
		now:      time.Now,
	}
}

func markKey(job string) string {
	return markKeyPrefix + job
}

// ShouldRun permits a run when no mark exists or the elapsed time since the
// last mark is at least the configured interval (or the override, when
// given). Store read failures fail open: blocking the pipeline indefinitely
// on a transient store blip would be worse than an occasional early run.
func (g *Gate) ShouldRun(ctx context.Context, job string, override ...time.Duration) Decision {
	interval := g.interval
	if len(override) > 0 && override[0] > 0 {
		interval = override[0]
	}

	data, ok, err := g.store.Get(ctx, markKey(job))
	if err != nil {
		slog.Warn("Failed to read schedule mark, allowing run", "job", job, "error", err)
		return Decision{ShouldRun: true, Reason: "schedule mark unreadable, failing open"}
	}
	if !ok {
		return Decision{ShouldRun: true, Reason: "no previous run recorded"}
	}

	var mark Mark
	if err := json.Unmarshal([]byte(data), &mark); err != nil {
		slog.Warn("Malformed schedule mark, allowing run", "job", job, "error", err)
		return Decision{ShouldRun: true, Reason: "schedule mark malformed, failing open"}
	}

	now := g.now().UTC()
	elapsed := now.Sub(mark.RanAt)
	nextAllowed := mark.RanAt.Add(interval)

	if elapsed >= interval {
		return Decision{
			ShouldRun:     true,
			Reason:        fmt.Sprintf("interval elapsed (%s since last run)", elapsed.Round(time.Second)),
			LastRun:       &mark,
			Elapsed:       elapsed,
			NextAllowedAt: nextAllowed,
		}
	}

	return Decision{
		ShouldRun:     false,
		Reason:        fmt.Sprintf("last run %s ago, next allowed at %s", elapsed.Round(time.Second), nextAllowed.Format(time.RFC3339)),
		LastRun:       &mark,
		Elapsed:       elapsed,
		NextAllowedAt: nextAllowed,
	}
}

// RecordRun overwrites the job's mark with the current timestamp. Called at
// the end of every completed run attempt, successful or partially failed.
func (g *Gate) RecordRun(ctx context.Context, job string, summary string) error {
	mark := Mark{
		Job:     job,
		RanAt:   g.now().UTC(),
		Summary: summary,
	}

	data, err := json.Marshal(mark)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule mark for %s: %w", job, err)
	}

	if err := g.store.Set(ctx, markKey(job), string(data)); err != nil {
		return fmt.Errorf("failed to record run for %s: %w", job, err)
	}
	return nil
}

// ForceRunnable deletes the job's mark. Operator escape hatch.
func (g *Gate) ForceRunnable(ctx context.Context, job string) error {
	if err := g.store.Delete(ctx, markKey(job)); err != nil {
		return fmt.Errorf("failed to delete schedule mark for %s: %w", job, err)
	}
	return nil
}

// Status reports the gate decision without side effects.
func (g *Gate) Status(ctx context.Context, job string) Decision {
	return g.ShouldRun(ctx, job)
}

// CleanupOld deletes marks older than the retention window, along with any
// marks that no longer unmarshal. Returns the number of marks removed.
func (g *Gate) CleanupOld(ctx context.Context, retention time.Duration) (int, error) {
	keys, err := g.store.ListKeys(ctx, markKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to list schedule marks: %w", err)
	}

	cutoff := g.now().UTC().Add(-retention)
	removed := 0

	for _, key := range keys {
		data, ok, err := g.store.Get(ctx, key)
		if err != nil || !ok {
			continue
		}

		var mark Mark
		malformed := json.Unmarshal([]byte(data), &mark) != nil

		if malformed || mark.RanAt.Before(cutoff) {
			if err := g.store.Delete(ctx, key); err != nil {
				slog.Warn("Failed to delete schedule mark", "key", key, "error", err)
				continue
			}
			removed++
		}
	}

	return removed, nil
}
