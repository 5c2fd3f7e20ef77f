package port

import "context"

// CacheInvalidator drops previously fetched results by semantic key so the
// read side refetches them after a mutation. The set of keys per operation
// is the workflow's only contract with the cache layer.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}
