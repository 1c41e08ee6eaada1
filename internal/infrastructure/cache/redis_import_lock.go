package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/posync/internal/domain/shared"
	"github.com/erp/posync/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultLockPrefix = "posync:lock:"

// releaseScript deletes the key only while it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisImportLock implements ImportLock on Redis so imports are serialized
// across every instance sharing the database
type RedisImportLock struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisImportLock connects and pings within five seconds
func NewRedisImportLock(cfg config.RedisConfig) (*RedisImportLock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisImportLockWithClient(client, ""), nil
}

// NewRedisImportLockWithClient creates a lock with an existing Redis client
func NewRedisImportLockWithClient(client *redis.Client, keyPrefix string) *RedisImportLock {
	if keyPrefix == "" {
		keyPrefix = defaultLockPrefix
	}
	return &RedisImportLock{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Acquire takes the lock with SET NX and a TTL in one round trip
func (l *RedisImportLock) Acquire(ctx context.Context, name string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.keyPrefix+name, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return "", shared.ErrLockHeld
	}
	return token, nil
}

// Release deletes the lock key only if token still owns it
func (l *RedisImportLock) Release(ctx context.Context, name, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.keyPrefix + name}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	return nil
}

// Close closes the Redis client
func (l *RedisImportLock) Close() error {
	return l.client.Close()
}

// Ensure RedisImportLock implements ImportLock
var _ shared.ImportLock = (*RedisImportLock)(nil)
