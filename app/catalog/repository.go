package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/msavelyev/productscout/app/store"
)

const recordKeyPrefix = "record:"

// ErrNotFound is returned when an operation targets a record id that is not
// in the store.
var ErrNotFound = errors.New("record not found")

// Repository persists records in the shared store and implements the
// deduplication index: admission by normalized link is idempotent, and a
// rejected record is never re-created from a later sighting of its link.
type Repository struct {
	store store.Store
	now   func() time.Time
}

func NewRepository(s store.Store) *Repository {
	return &Repository{
		store: s,
		now:   time.Now,
	}
}

func recordKey(id string) string {
	return recordKeyPrefix + id
}

func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	data, ok, err := r.store.Get(ctx, recordKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %s: %w", id, err)
	}
	return &rec, nil
}

func (r *Repository) Save(ctx context.Context, rec *Record) error {
	rec.UpdatedAt = r.now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", rec.ID, err)
	}

	if err := r.store.Set(ctx, recordKey(rec.ID), string(data)); err != nil {
		return fmt.Errorf("failed to save record %s: %w", rec.ID, err)
	}
	return nil
}

// Update applies fn to the record and persists the result. A missing record
// surfaces as ErrNotFound rather than being silently recreated.
func (r *Repository) Update(ctx context.Context, id string, fn func(*Record)) (*Record, error) {
	rec, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}

	fn(rec)

	if err := r.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *Repository) List(ctx context.Context) ([]*Record, error) {
	keys, err := r.store.ListKeys(ctx, recordKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list record keys: %w", err)
	}

	records := make([]*Record, 0, len(keys))
	for _, key := range keys {
		data, ok, err := r.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to get record at %s: %w", key, err)
		}
		if !ok {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			slog.Warn("Skipping malformed record", "key", key, "error", err)
			continue
		}
		records = append(records, &rec)
	}

	return records, nil
}

func (r *Repository) ListByStatus(ctx context.Context, status Status) ([]*Record, error) {
	records, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := records[:0]
	for _, rec := range records {
		if rec.Status == status {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

// FindByLink scans the known records and compares normalized links. Returns
// nil when no record carries the link.
func (r *Repository) FindByLink(ctx context.Context, link string) (*Record, error) {
	records, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.Link == link {
			return rec, nil
		}
	}
	return nil, nil
}

// Admit inserts a normalized entry, deduplicating by normalized link. An
// existing record is returned unchanged whatever its status: re-admission is
// idempotent and a rejected record stays rejected. The second return value
// reports whether a new record was created.
func (r *Repository) Admit(ctx context.Context, entry *NormalizedEntry) (*Record, bool, error) {
	existing, err := r.FindByLink(ctx, entry.Link)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		if existing.Status == StatusRejected {
			slog.Debug("Skipping previously rejected record", "link", entry.Link)
		}
		return existing, false, nil
	}

	now := r.now().UTC()
	rec := &Record{
		ID:          uuid.NewString(),
		Link:        entry.Link,
		Title:       entry.Title,
		Description: entry.Description,
		Category:    entry.Category,
		MakerName:   entry.MakerName,
		PublishedAt: entry.PublishedAt,
		Status:      StatusPending,
		CreatedAt:   now,
	}

	if err := r.Save(ctx, rec); err != nil {
		return nil, false, err
	}

	return rec, true, nil
}
