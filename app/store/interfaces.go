package store

import "context"

// Store is the persistent key-value layer shared by records, cache entries
// and schedule marks. Key namespaces ("record:", "cache:", "schedule:") keep
// the three from colliding.
type Store interface {
	// Get returns the value for key, or ok=false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	// ListKeys returns all keys starting with the given prefix.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}
