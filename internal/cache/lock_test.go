package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLock_SecondAcquireFails(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	err := WithLock(ctx, rdb, "rebuild", time.Minute, func(ctx context.Context) error {
		inner := WithLock(ctx, rdb, "rebuild", time.Minute, func(ctx context.Context) error {
			t.Fatal("second holder must not run")
			return nil
		})
		assert.ErrorIs(t, inner, ErrLocked)
		return nil
	})
	require.NoError(t, err)
}

func TestWithLock_ReleasesOnError(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := WithLock(ctx, rdb, "rebuild", time.Minute, func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// released despite the failure, so the next caller gets in
	var ran bool
	err = WithLock(ctx, rdb, "rebuild", time.Minute, func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestWithLock_DifferentNamesAreIndependent(t *testing.T) {
	_, rdb := newTestRedis(t)
	ctx := context.Background()

	err := WithLock(ctx, rdb, "rebuild", time.Minute, func(ctx context.Context) error {
		return WithLock(ctx, rdb, "other", time.Minute, func(ctx context.Context) error {
			return nil
		})
	})
	require.NoError(t, err)
}
