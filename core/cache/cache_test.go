package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Disabled(t *testing.T) {
	rdb, err := NewClient(Config{})
	require.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestNewClient_Unreachable(t *testing.T) {
	rdb, err := NewClient(Config{Addr: "127.0.0.1:1", TimeoutSeconds: 1})
	assert.Error(t, err)
	assert.Nil(t, rdb)
}

func TestNewLocker_FallsBackToLocal(t *testing.T) {
	_, ok := NewLocker(nil).(*LocalLocker)
	assert.True(t, ok)
}

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	first, err := l.Obtain(ctx, "purge:students", time.Minute)
	require.NoError(t, err)

	_, err = l.Obtain(ctx, "purge:students", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	_, err = l.Obtain(ctx, "purge:advisors", time.Minute)
	assert.NoError(t, err, "other keys are independent")

	require.NoError(t, first.Release(ctx))
	second, err := l.Obtain(ctx, "purge:students", time.Minute)
	require.NoError(t, err)

	// A stale release must not drop the new holder.
	require.NoError(t, first.Release(ctx))
	_, err = l.Obtain(ctx, "purge:students", time.Minute)
	assert.ErrorIs(t, err, ErrLocked)

	now = now.Add(2 * time.Minute)
	_, err = l.Obtain(ctx, "purge:students", time.Minute)
	assert.NoError(t, err, "expired locks can be taken over")
	_ = second
}
