package shared

import (
	"context"
	"time"
)

// ImportLock serializes imports of the same kind across goroutines and,
// with a shared backend, across processes.
type ImportLock interface {
	// Acquire takes the named lock for at most ttl. It returns a release
	// token on success and ErrLockHeld when someone else holds it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (string, error)
	// Release frees the lock if token still owns it. Releasing an expired
	// or foreign lock is a no-op.
	Release(ctx context.Context, name, token string) error
}
