package lookup

import (
	"context"
	"errors"
)

// ErrRateLimited marks the search provider's distinguished rate-limit
// response. Callers treat it like any other transient failure but can log it
// separately.
var ErrRateLimited = errors.New("search API rate limited")

// Item is one ranked search result.
type Item struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// Client performs a free-text web search. An empty result slice with a nil
// error is a valid "nothing found" outcome, distinct from an error.
type Client interface {
	Search(ctx context.Context, query string) ([]Item, error)
}
