package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/msavelyev/productscout/app/cache"
	"github.com/msavelyev/productscout/app/catalog"
	"github.com/msavelyev/productscout/app/lookup"
)

const (
	scoreVerbatimTitle = 10
	scoreTokenTitle    = 2
	scoreTokenSnippet  = 1
	minTokenLength     = 3
)

// profilePayload is the cached lookup outcome. A cache entry with a nil
// payload is a cached negative result.
type profilePayload struct {
	ProfileURL string `json:"profile_url"`
}

// ProfileWorker resolves maker profile URLs through the external search API.
// Lookups run strictly sequentially with a fixed inter-call delay; both
// positive and negative outcomes are cached, and an external failure is
// cached as a negative result so a transient outage does not turn into a
// retry storm on the next run.
type ProfileWorker struct {
	client lookup.Client
	cache  *cache.TwoTier
	repo   *catalog.Repository
	site   string
	ttl    time.Duration
	delay  time.Duration
}

func NewProfileWorker(client lookup.Client, c *cache.TwoTier, repo *catalog.Repository,
	site string, ttl time.Duration, delay time.Duration) *ProfileWorker {
	return &ProfileWorker{
		client: client,
		cache:  c,
		repo:   repo,
		site:   site,
		ttl:    ttl,
		delay:  delay,
	}
}

// Run looks up profiles for each record with a maker name and no profile
// yet. Only cache misses hit the external API and count toward the delay.
func (w *ProfileWorker) Run(ctx context.Context, records []*catalog.Record) BatchResult {
	var result BatchResult
	madeExternalCall := false

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("batch aborted: %v", err))
			break
		}

		if strings.TrimSpace(rec.MakerName) == "" {
			result.Skipped++
			continue
		}
		if rec.ProfileURL != "" {
			result.Skipped++
			continue
		}

		if madeExternalCall && w.delay > 0 {
			select {
			case <-time.After(w.delay):
			case <-ctx.Done():
				result.Errors = append(result.Errors, fmt.Sprintf("batch aborted: %v", ctx.Err()))
				return result
			}
		}

		result.Processed++

		profileURL, fromCache, err := w.LookupMaker(ctx, rec.MakerName)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("record %s: %v", rec.ID, err))
			continue
		}
		if fromCache {
			result.Cached++
		} else {
			madeExternalCall = true
		}

		if profileURL == "" {
			continue
		}

		if _, err := w.repo.Update(ctx, rec.ID, func(r *catalog.Record) {
			r.ProfileURL = profileURL
		}); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("record %s: %v", rec.ID, err))
			continue
		}
		rec.ProfileURL = profileURL
		result.Updated++
	}

	return result
}

// LookupMaker returns the best-scoring profile URL for a maker name, or ""
// when nothing matched. The second return value reports a cache hit.
func (w *ProfileWorker) LookupMaker(ctx context.Context, makerName string) (string, bool, error) {
	name := strings.TrimSpace(makerName)
	if name == "" {
		return "", false, nil
	}

	key := cache.Key("profile", name)

	if entry, ok, err := w.cache.Get(ctx, key); err == nil && ok {
		if entry.Payload == nil {
			slog.Debug("Profile lookup negative cache hit", "maker", name)
			return "", true, nil
		}
		var payload profilePayload
		if err := json.Unmarshal(entry.Payload, &payload); err == nil {
			return payload.ProfileURL, true, nil
		}
	} else if err != nil {
		slog.Warn("Profile cache read failed", "maker", name, "error", err)
	}

	query := fmt.Sprintf("%q site:%s", name, w.site)

	items, err := w.client.Search(ctx, query)
	if err != nil {
		// Cache the failure as a negative result so the next run does not
		// hammer the API for the same name.
		slog.Warn("Profile lookup failed, caching negative result", "maker", name, "error", err)
		if cacheErr := w.cache.Set(ctx, key, nil, w.ttl); cacheErr != nil {
			slog.Warn("Failed to cache negative profile result", "maker", name, "error", cacheErr)
		}
		return "", false, nil
	}

	profileURL := w.pickBestMatch(name, items)

	if profileURL == "" {
		if err := w.cache.Set(ctx, key, nil, w.ttl); err != nil {
			slog.Warn("Failed to cache negative profile result", "maker", name, "error", err)
		}
		return "", false, nil
	}

	payload, err := json.Marshal(profilePayload{ProfileURL: profileURL})
	if err != nil {
		return "", false, fmt.Errorf("failed to marshal profile payload: %w", err)
	}
	if err := w.cache.Set(ctx, key, payload, w.ttl); err != nil {
		slog.Warn("Failed to cache profile result", "maker", name, "error", err)
	}

	return profileURL, false, nil
}

// pickBestMatch scores each candidate: +10 when the cleaned name appears
// verbatim in the title, +2 per significant name token in the title, +1 per
// token in the snippet. The highest score above zero wins.
func (w *ProfileWorker) pickBestMatch(name string, items []lookup.Item) string {
	cleaned := strings.ToLower(strings.TrimSpace(name))
	tokens := significantTokens(cleaned)

	bestScore := 0
	bestLink := ""

	for _, item := range items {
		title := strings.ToLower(item.Title)
		snippet := strings.ToLower(item.Snippet)

		score := 0
		if strings.Contains(title, cleaned) {
			score += scoreVerbatimTitle
		}
		for _, token := range tokens {
			if strings.Contains(title, token) {
				score += scoreTokenTitle
			}
			if strings.Contains(snippet, token) {
				score += scoreTokenSnippet
			}
		}

		if score > bestScore {
			bestScore = score
			bestLink = item.Link
		}
	}

	return bestLink
}

func significantTokens(s string) []string {
	var tokens []string
	for _, token := range strings.Fields(s) {
		if len(token) >= minTokenLength {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
