package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/card-scraper/internal/repository"
)

func TestRunLockKey(t *testing.T) {
	lock := NewRunLock(nil)

	a := lock.generateKey("https://www.tcgplayer.com/search/pokemon/product?page={}")
	b := lock.generateKey("https://www.tcgplayer.com/search/pokemon/product?page={}")
	c := lock.generateKey("https://www.tcgplayer.com/search/magic/product?page={}")

	assert.True(t, strings.HasPrefix(a, runLockPrefix))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestRunLock_AcquireRelease(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	lock := NewRunLock(client)
	const key = "https://www.tcgplayer.com/search/pokemon/product?page={}"

	token, err := lock.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ttl, err := client.PTTL(ctx, lock.generateKey(key)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	_, err = lock.Acquire(ctx, key, time.Minute)
	require.ErrorIs(t, err, repository.ErrRunInProgress)

	// A release with someone else's token leaves the lock in place.
	require.NoError(t, lock.Release(ctx, key, "not-the-owner"))
	held, err := client.Get(ctx, lock.generateKey(key)).Result()
	require.NoError(t, err)
	assert.Equal(t, token, held)

	require.NoError(t, lock.Release(ctx, key, token))
	exists, err := client.Exists(ctx, lock.generateKey(key)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	again, err := lock.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.NotEqual(t, token, again)
}

func TestRunLock_ExpiredLockCanBeRetaken(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	lock := NewRunLock(client)

	_, err := lock.Acquire(ctx, "short", 50*time.Millisecond)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := lock.Acquire(ctx, "short", time.Minute)
		return err == nil
	}, 2*time.Second, 25*time.Millisecond)
}
