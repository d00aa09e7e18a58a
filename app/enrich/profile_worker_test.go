package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/msavelyev/productscout/app/cache"
	"github.com/msavelyev/productscout/app/catalog"
	"github.com/msavelyev/productscout/app/lookup"
	"github.com/msavelyev/productscout/app/store"
)

type fakeSearchClient struct {
	items []lookup.Item
	err   error
	calls int
}

func (c *fakeSearchClient) Search(ctx context.Context, query string) ([]lookup.Item, error) {
	c.calls++
	return c.items, c.err
}

func newProfileTestWorker(client lookup.Client) (*ProfileWorker, *catalog.Repository) {
	kv := store.NewMemoryStore()
	repo := catalog.NewRepository(kv)
	c := cache.New(kv, 10)
	return NewProfileWorker(client, c, repo, "linkedin.com/in", time.Hour, 0), repo
}

func TestLookupPicksVerbatimTitleMatch(t *testing.T) {
	client := &fakeSearchClient{items: []lookup.Item{
		{Title: "Doe Industries hiring", Snippet: "jane mentioned", Link: "https://example.com/wrong"},
		{Title: "Jane Doe - Founder", Snippet: "Building Acme Tool", Link: "https://example.com/jane"},
		{Title: "John Doe", Snippet: "unrelated", Link: "https://example.com/john"},
	}}
	worker, _ := newProfileTestWorker(client)

	url, fromCache, err := worker.LookupMaker(context.Background(), "Jane Doe")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if fromCache {
		t.Error("Expected external call, not cache hit")
	}
	if url != "https://example.com/jane" {
		t.Errorf("Expected verbatim title match to win, got %q", url)
	}
}

func TestLookupYieldsNotFoundWhenNothingScores(t *testing.T) {
	client := &fakeSearchClient{items: []lookup.Item{
		{Title: "Unrelated result", Snippet: "nothing here", Link: "https://example.com/x"},
	}}
	worker, _ := newProfileTestWorker(client)

	url, _, err := worker.LookupMaker(context.Background(), "Jane Doe")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if url != "" {
		t.Errorf("Expected no match, got %q", url)
	}
}

func TestNegativeResultIsCachedAndHonored(t *testing.T) {
	client := &fakeSearchClient{}
	worker, _ := newProfileTestWorker(client)
	ctx := context.Background()

	if _, _, err := worker.LookupMaker(ctx, "Unknown Person"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("Expected 1 external call, got %d", client.calls)
	}

	// Repeat within TTL: zero additional external calls.
	url, fromCache, err := worker.LookupMaker(ctx, "Unknown Person")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if client.calls != 1 {
		t.Errorf("Expected negative result to be served from cache, got %d calls", client.calls)
	}
	if !fromCache {
		t.Error("Expected cache hit")
	}
	if url != "" {
		t.Errorf("Expected cached negative result, got %q", url)
	}
}

func TestSearchFailureIsCachedAsNegative(t *testing.T) {
	client := &fakeSearchClient{err: errors.New("search API down")}
	worker, _ := newProfileTestWorker(client)
	ctx := context.Background()

	url, _, err := worker.LookupMaker(ctx, "Jane Doe")
	if err != nil {
		t.Fatalf("Expected failure to be swallowed, got: %v", err)
	}
	if url != "" {
		t.Errorf("Expected empty result on failure, got %q", url)
	}

	// The failure outcome is cached; the next run makes no external call.
	worker.LookupMaker(ctx, "Jane Doe")
	if client.calls != 1 {
		t.Errorf("Expected 1 external call total, got %d", client.calls)
	}
}

func TestCosmeticNameVariantsShareCacheEntry(t *testing.T) {
	client := &fakeSearchClient{}
	worker, _ := newProfileTestWorker(client)
	ctx := context.Background()

	worker.LookupMaker(ctx, "Jane Doe")
	worker.LookupMaker(ctx, "jane doe")
	worker.LookupMaker(ctx, "JANE  DOE!")

	if client.calls != 1 {
		t.Errorf("Expected cosmetic variants to collide on one cache entry, got %d calls", client.calls)
	}
}

func TestRunSkipsRecordsWithoutMakerOrWithProfile(t *testing.T) {
	client := &fakeSearchClient{items: []lookup.Item{
		{Title: "Jane Doe", Snippet: "", Link: "https://example.com/jane"},
	}}
	worker, repo := newProfileTestWorker(client)
	ctx := context.Background()

	noMaker, _, _ := repo.Admit(ctx, &catalog.NormalizedEntry{Link: "https://x.com/a", Title: "A Tool"})
	hasProfile, _, _ := repo.Admit(ctx, &catalog.NormalizedEntry{Link: "https://x.com/b", Title: "B Tool", MakerName: "Jane Doe"})
	repo.Update(ctx, hasProfile.ID, func(r *catalog.Record) { r.ProfileURL = "https://example.com/existing" })
	hasProfile, _ = repo.Get(ctx, hasProfile.ID)
	needsLookup, _, _ := repo.Admit(ctx, &catalog.NormalizedEntry{Link: "https://x.com/c", Title: "C Tool", MakerName: "Jane Doe"})

	result := worker.Run(ctx, []*catalog.Record{noMaker, hasProfile, needsLookup})

	if result.Skipped != 2 {
		t.Errorf("Expected 2 skipped, got %d", result.Skipped)
	}
	if result.Processed != 1 {
		t.Errorf("Expected 1 processed, got %d", result.Processed)
	}
	if result.Updated != 1 {
		t.Errorf("Expected 1 updated, got %d", result.Updated)
	}

	stored, _ := repo.Get(ctx, needsLookup.ID)
	if stored.ProfileURL != "https://example.com/jane" {
		t.Errorf("Expected profile URL to be persisted, got %q", stored.ProfileURL)
	}
}
