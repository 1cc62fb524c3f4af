package repository

import (
	"context"
	"time"
)

// RunLock prevents two scrape runs over the same search from overlapping.
type RunLock interface {
	// Acquire takes the lock for ttl. It returns ErrRunInProgress if another run holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	// Release drops the lock if it is still held with token.
	Release(ctx context.Context, key, token string) error
}
