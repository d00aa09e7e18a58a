package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/msavelyev/productscout/app/cache"
	"github.com/msavelyev/productscout/app/catalog"
)

// browserUserAgent gets past sites that reject obvious bot agents.
const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// scrapedDetails is the cached extraction payload, keyed per record id with
// its own TTL independent of the profile lookup cache.
type scrapedDetails struct {
	Topics      []string `json:"topics,omitempty"`
	Website     string   `json:"website,omitempty"`
	Tagline     string   `json:"tagline,omitempty"`
	LaunchYear  string   `json:"launch_year,omitempty"`
	Accelerator string   `json:"accelerator,omitempty"`
	ProfileURL  string   `json:"profile_url,omitempty"`
	RepoURL     string   `json:"repo_url,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
}

// ScrapeWorker fetches each record's source page and fills the optional
// detail fields. Transport failures are retried with linearly increasing
// backoff; after the budget is exhausted the failure propagates to the
// caller, which logs it in the batch error list and moves on.
type ScrapeWorker struct {
	httpClient *http.Client
	cache      *cache.TwoTier
	repo       *catalog.Repository
	ttl        time.Duration
	retries    int
	backoff    BackoffFunc
	timeout    time.Duration
	now        func() time.Time
}

func NewScrapeWorker(httpClient *http.Client, c *cache.TwoTier, repo *catalog.Repository,
	ttl time.Duration, retries int, backoffStep time.Duration, timeout time.Duration) *ScrapeWorker {
	return &ScrapeWorker{
		httpClient: httpClient,
		cache:      c,
		repo:       repo,
		ttl:        ttl,
		retries:    retries,
		backoff:    LinearBackoff(backoffStep),
		timeout:    timeout,
		now:        time.Now,
	}
}

func (w *ScrapeWorker) Run(ctx context.Context, records []*catalog.Record) BatchResult {
	var result BatchResult

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("batch aborted: %v", err))
			break
		}

		// A record enriched within the TTL window is skipped outright,
		// before any fetch or cache traffic.
		if !w.needsEnrichment(rec) {
			result.Skipped++
			continue
		}

		result.Processed++

		updated, err := w.EnrichRecord(ctx, rec.ID, false)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("record %s: %v", rec.ID, err))
			continue
		}
		*rec = *updated
		result.Updated++
	}

	return result
}

// EnrichRecord scrapes one record's source page and persists the extracted
// fields. With force set, the recently-enriched skip window is ignored.
func (w *ScrapeWorker) EnrichRecord(ctx context.Context, recordID string, force bool) (*catalog.Record, error) {
	rec, err := w.repo.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, catalog.ErrNotFound
	}

	if !force && !w.needsEnrichment(rec) {
		slog.Debug("Record recently enriched, skipping", "record", rec.ID)
		return rec, nil
	}

	details, err := w.scrape(ctx, rec.Link)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scraped details: %w", err)
	}
	if err := w.cache.Set(ctx, cache.Key("scrape", rec.ID), payload, w.ttl); err != nil {
		slog.Warn("Failed to cache scraped details", "record", rec.ID, "error", err)
	}

	now := w.now().UTC()
	return w.repo.Update(ctx, rec.ID, func(r *catalog.Record) {
		applyDetails(r, details)
		r.EnrichedAt = &now
	})
}

func (w *ScrapeWorker) needsEnrichment(rec *catalog.Record) bool {
	if rec.EnrichedAt == nil {
		return true
	}
	return w.now().Sub(*rec.EnrichedAt) >= w.ttl
}

func (w *ScrapeWorker) scrape(ctx context.Context, pageURL string) (*scrapedDetails, error) {
	var body []byte

	err := Retry(ctx, w.retries, w.backoff, func() error {
		data, err := w.fetchPage(ctx, pageURL)
		if err != nil {
			slog.Debug("Page fetch attempt failed", "url", pageURL, "error", err)
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}

	rawHTML := string(body)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", pageURL, err)
	}

	return &scrapedDetails{
		Topics:      extractTopics(doc),
		Website:     firstNonEmpty(doc, rawHTML, websiteExtractors),
		Tagline:     firstNonEmpty(doc, rawHTML, taglineExtractors),
		LaunchYear:  firstNonEmpty(doc, rawHTML, launchYearExtractors),
		Accelerator: firstNonEmpty(doc, rawHTML, acceleratorExtractors),
		ProfileURL:  firstNonEmpty(doc, rawHTML, profileURLExtractors),
		RepoURL:     firstNonEmpty(doc, rawHTML, repoURLExtractors),
		ImageURL:    firstNonEmpty(doc, rawHTML, imageURLExtractors),
	}, nil
}

func (w *ScrapeWorker) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read page body: %w", err)
	}

	return data, nil
}

// applyDetails fills record fields from the scrape; an empty extraction
// keeps whatever value the record already had.
func applyDetails(rec *catalog.Record, details *scrapedDetails) {
	if len(details.Topics) > 0 {
		rec.Topics = details.Topics
	}
	if details.Website != "" {
		rec.Website = details.Website
	}
	if details.Tagline != "" {
		rec.Tagline = details.Tagline
	}
	if details.LaunchYear != "" {
		rec.LaunchYear = details.LaunchYear
	}
	if details.Accelerator != "" {
		rec.Accelerator = details.Accelerator
	}
	if details.ProfileURL != "" && rec.ProfileURL == "" {
		rec.ProfileURL = details.ProfileURL
	}
	if details.RepoURL != "" {
		rec.RepoURL = details.RepoURL
	}
	if details.ImageURL != "" {
		rec.ImageURL = details.ImageURL
	}
}
