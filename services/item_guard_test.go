package services_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "readify/common/errors"
	"readify/services"
)

func TestItemGuard_SingleHolder(t *testing.T) {
	_, client := newRedis(t)
	guard := services.NewRedisItemGuard(client, 5*time.Second, testLogger())
	account, book := uuid.New(), uuid.New()

	var holders, busy int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := guard.Acquire(context.Background(), services.GuardCart, account, book)
			if err == nil {
				atomic.AddInt32(&holders, 1)
				return
			}
			if assert.ErrorIs(t, err, apperrors.ErrItemBusy) {
				atomic.AddInt32(&busy, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), holders)
	assert.Equal(t, int32(19), busy)
}

func TestItemGuard_ReleaseOnlyOwnToken(t *testing.T) {
	mr, client := newRedis(t)
	guard := services.NewRedisItemGuard(client, time.Second, testLogger())
	account, book := uuid.New(), uuid.New()
	key := "guard:cart:" + account.String() + ":" + book.String()

	release, err := guard.Acquire(context.Background(), services.GuardCart, account, book)
	require.NoError(t, err)

	// the first holder's key expires and someone else takes it
	mr.FastForward(2 * time.Second)
	releaseSecond, err := guard.Acquire(context.Background(), services.GuardCart, account, book)
	require.NoError(t, err)

	release()
	assert.True(t, mr.Exists(key), "stale holder must not delete the new holder's key")

	releaseSecond()
	assert.False(t, mr.Exists(key))

	_, err = guard.Acquire(context.Background(), services.GuardWishlist, account, book)
	assert.NoError(t, err)
}

func TestItemGuard_NoLeaks(t *testing.T) {
	_, client := newRedis(t)
	// open the pooled connection before taking the goroutine snapshot
	require.NoError(t, client.Ping(context.Background()).Err())
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	guard := services.NewRedisItemGuard(client, time.Second, testLogger())
	release, err := guard.Acquire(context.Background(), services.GuardCart, uuid.New(), uuid.New())
	require.NoError(t, err)
	release()
}
