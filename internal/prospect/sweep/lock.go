package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// LockKey guards the overdue lead sweep across instances.
const LockKey = "prospectai:sweep:overdue"

// Release gives a held lock back.
type Release func(ctx context.Context) error

// Locker grants exclusive runs. ok is false when another holder has the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release Release, ok bool, err error)
}

// Only the holder that set the token may delete the key.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrLockLost is returned by Release when the key expired or was taken over.
var ErrLockLost = errors.New("sweep lock no longer held")

// RedisLocker implements Locker with SET NX and a compare-and-delete release.
type RedisLocker struct {
	client redis.UniversalClient
}

// NewRedisLocker creates a locker on client.
func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire sets key to a fresh token for ttl if it is free.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Release, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		deleted, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		if deleted == 0 {
			return ErrLockLost
		}
		return nil
	}
	return release, true, nil
}
