package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/posync/internal/domain/shared"
	"github.com/google/uuid"
)

// lockEntry is a held lock with its owner token
type lockEntry struct {
	token     string
	expiresAt time.Time
}

// InMemoryImportLock implements ImportLock with a process-local map.
// It serializes imports inside one process only; use RedisImportLock when
// several instances share a database.
type InMemoryImportLock struct {
	mu    sync.Mutex
	locks map[string]lockEntry
	now   func() time.Time
}

// NewInMemoryImportLock creates a new in-memory import lock
func NewInMemoryImportLock() *InMemoryImportLock {
	return &InMemoryImportLock{
		locks: make(map[string]lockEntry),
		now:   time.Now,
	}
}

// Acquire takes the named lock. An expired lock is taken over.
func (l *InMemoryImportLock) Acquire(ctx context.Context, name string, ttl time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, held := l.locks[name]; held && now.Before(e.expiresAt) {
		return "", shared.ErrLockHeld
	}

	token := uuid.NewString()
	l.locks[name] = lockEntry{token: token, expiresAt: now.Add(ttl)}
	return token, nil
}

// Release frees the lock if token still owns it
func (l *InMemoryImportLock) Release(_ context.Context, name, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, held := l.locks[name]; held && e.token == token {
		delete(l.locks, name)
	}
	return nil
}

// Held reports whether the named lock is currently held (for monitoring)
func (l *InMemoryImportLock) Held(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, held := l.locks[name]
	return held && l.now().Before(e.expiresAt)
}

// Ensure InMemoryImportLock implements ImportLock
var _ shared.ImportLock = (*InMemoryImportLock)(nil)
