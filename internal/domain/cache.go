package domain

import (
	"context"
	"time"
)

// AggregateCache memoizes serialized subtree aggregates. Implementations
// must degrade to calling the factory directly when the backend is
// unavailable; a cache outage never fails a read.
type AggregateCache interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, factory func() ([]byte, error)) ([]byte, bool, error)
	InvalidatePrefix(ctx context.Context, prefix string) error
}
