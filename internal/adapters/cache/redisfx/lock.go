package redisfx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/oks-citadel/citadelbuy-fx/internal/apperrors"
	"github.com/oks-citadel/citadelbuy-fx/internal/core/domain"
)

// releaseScript deletes the lock key only when it still holds the
// caller's token. Compare-and-delete must be atomic; a GET followed by
// a DEL could remove a lock that expired and was re-acquired in between.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker implements the ports.DistributedLocker interface using
// SET NX with a TTL attached at creation time, so a crashed holder
// self-heals once the TTL elapses.
type RedisLocker struct {
	client *redis.Client
}

// NewLocker creates a new RedisLocker.
func NewLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire attempts a single non-blocking acquisition. If the key is
// already held, or the lock backend is unreachable, it returns
// apperrors.ErrLockUnavailable. Backend errors fail closed: proceeding
// unguarded would allow two concurrent fetches for the same currency.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (*domain.LockHandle, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: lock backend unreachable: %v", apperrors.ErrLockUnavailable, err)
	}
	if !ok {
		return nil, apperrors.ErrLockUnavailable
	}

	return &domain.LockHandle{
		Key:        key,
		LockID:     token,
		AcquiredAt: time.Now(),
		TTL:        ttl,
	}, nil
}

// Release removes the lock only if the stored token matches the
// handle's LockID; otherwise it is a no-op.
func (l *RedisLocker) Release(ctx context.Context, handle *domain.LockHandle) error {
	if handle == nil {
		return nil
	}
	if err := releaseScript.Run(ctx, l.client, []string{handle.Key}, handle.LockID).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", handle.Key, err)
	}
	return nil
}
