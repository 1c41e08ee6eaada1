package cache

import (
	"fmt"

	"github.com/erp/posync/internal/domain/shared"
	"github.com/erp/posync/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ImportLockFactory chooses between the Redis and in-memory import locks
type ImportLockFactory struct {
	cfg      config.RedisConfig
	logger   *zap.Logger
	fallback bool
}

type ImportLockFactoryOption func(*ImportLockFactory)

func WithLogger(logger *zap.Logger) ImportLockFactoryOption {
	return func(f *ImportLockFactory) { f.logger = logger }
}

// WithInMemoryFallback decides what happens when Redis is enabled but
// unreachable: fall back (the default) or fail.
func WithInMemoryFallback(allow bool) ImportLockFactoryOption {
	return func(f *ImportLockFactory) { f.fallback = allow }
}

func NewImportLockFactory(cfg config.RedisConfig, opts ...ImportLockFactoryOption) *ImportLockFactory {
	f := &ImportLockFactory{cfg: cfg, logger: zap.NewNop(), fallback: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the in-memory lock unless redis.enabled is set
func (f *ImportLockFactory) Create() (shared.ImportLock, error) {
	if !f.cfg.Enabled {
		return NewInMemoryImportLock(), nil
	}

	lock, err := NewRedisImportLock(f.cfg)
	switch {
	case err == nil:
		f.logger.Info("Using Redis import lock", zap.String("addr", f.cfg.Addr()))
		return lock, nil
	case !f.fallback:
		return nil, fmt.Errorf("redis required for import lock but unavailable: %w", err)
	}

	// other instances will not see this lock
	f.logger.Warn("Redis unavailable, falling back to in-memory import lock", zap.Error(err))
	return NewInMemoryImportLock(), nil
}
