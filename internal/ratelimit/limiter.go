// Package ratelimit implements the shared rolling-window admission
// control guarding every quota-limited outbound call. Buckets are keyed
// per (endpoint, model tier) and live in Redis so every worker shares
// one budget.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const Window = 60 * time.Second

var ErrRejected = errors.New("ratelimit: wait exceeds max wait")

// The whole evict/admit/reserve decision runs as one script so two
// callers can never both take the last slot.
var reserveScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local budget = tonumber(ARGV[3])
local max_wait = tonumber(ARGV[4])

redis.call("zremrangebyscore", key, 0, now - window)

local count = redis.call("zcard", key)
if count < budget then
	redis.call("zadd", key, now, ARGV[5])
	redis.call("pexpire", key, window * 2)
	return 0
end

local oldest = redis.call("zrange", key, 0, 0, "WITHSCORES")
local wait = tonumber(oldest[2]) + window - now
if wait < 0 then
	wait = 0
end
if wait <= max_wait then
	redis.call("zadd", key, now + wait, ARGV[5])
	redis.call("pexpire", key, window * 2)
	return wait
end
return -1
`)

type Limiter struct {
	rdb *redis.Client
}

func NewLimiter(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb}
}

// Reserve admits the call immediately (wait 0), reserves a future slot
// and returns how long the caller must sleep, or returns ErrRejected when
// the required wait exceeds maxWait. On rejection nothing is reserved.
func (l *Limiter) Reserve(ctx context.Context, bucket string, now time.Time, perMinute int, maxWait time.Duration) (time.Duration, error) {
	res, err := reserveScript.Run(ctx, l.rdb,
		[]string{"ratelimit:" + bucket},
		now.UnixMilli(),
		Window.Milliseconds(),
		perMinute,
		maxWait.Milliseconds(),
		uuid.NewString(),
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to reserve rate limit slot: %w", err)
	}
	if res < 0 {
		return 0, ErrRejected
	}
	return time.Duration(res) * time.Millisecond, nil
}

// Wait reserves a slot and sleeps exactly the returned wait before
// handing control back to the caller.
func (l *Limiter) Wait(ctx context.Context, bucket string, perMinute int, maxWait time.Duration) error {
	wait, err := l.Reserve(ctx, bucket, time.Now(), perMinute, maxWait)
	if err != nil {
		return err
	}
	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
