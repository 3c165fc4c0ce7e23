package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLocked = errors.New("cache: lock already held")

// release only deletes the lock when the token still matches, so an
// expired lock taken over by someone else is never removed by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// WithLock runs fn under a per-key distributed lock. The lock expires on
// its own after ttl; release is guaranteed even when fn fails.
func WithLock(ctx context.Context, rdb *redis.Client, name string, ttl time.Duration, fn func(ctx context.Context) error) error {
	key := lockKey(name)
	token := uuid.NewString()

	ok, err := rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return ErrLocked
	}

	defer func() {
		released, err := releaseScript.Run(context.WithoutCancel(ctx), rdb, []string{key}, token).Int()
		if err != nil {
			slog.Error("failed to release lock", "lock", name, "error", err)
			return
		}
		if released == 0 {
			slog.Warn("lock expired before release", "lock", name)
		}
	}()

	return fn(ctx)
}
