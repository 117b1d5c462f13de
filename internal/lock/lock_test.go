package lock

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestLocal_TryLock(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, err := l.TryLock(ctx)
	require.NoError(t, err)

	_, err = l.TryLock(ctx)
	assert.ErrorIs(t, err, ErrLocked)

	release()
	release() // second call is a no-op

	release, err = l.TryLock(ctx)
	require.NoError(t, err)
	release()
}

func TestLocal_OnlyOneWinner(t *testing.T) {
	l := NewLocal()
	var winners int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := l.TryLock(context.Background()); err == nil {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}

func setupRedisContainer(ctx context.Context) (tc.Container, *redis.Client, error) {
	req := tc.ContainerRequest{
		Image:        "redis:7",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, nil, err
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return nil, nil, err
	}

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	return container, client, nil
}

func TestRedis_TryLock(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping redis integration test in short mode")
	}
	ctx := context.Background()

	container, client, err := setupRedisContainer(ctx)
	require.NoError(t, err)
	defer container.Terminate(ctx)
	defer client.Close()

	a := NewRedis(client, "refresh-lock-test", time.Minute)
	b := NewRedis(client, "refresh-lock-test", time.Minute)

	release, err := a.TryLock(ctx)
	require.NoError(t, err)

	_, err = b.TryLock(ctx)
	assert.ErrorIs(t, err, ErrLocked)

	release()

	releaseB, err := b.TryLock(ctx)
	require.NoError(t, err)
	releaseB()

	exists, err := client.Exists(ctx, "refresh-lock-test").Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestRedis_ReleaseKeepsForeignLock(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping redis integration test in short mode")
	}
	ctx := context.Background()

	container, client, err := setupRedisContainer(ctx)
	require.NoError(t, err)
	defer container.Terminate(ctx)
	defer client.Close()

	l := NewRedis(client, "refresh-lock-expiry", 200*time.Millisecond)
	release, err := l.TryLock(ctx)
	require.NoError(t, err)

	// let the lock expire and be taken by someone else
	time.Sleep(400 * time.Millisecond)
	other := NewRedis(client, "refresh-lock-expiry", time.Minute)
	releaseOther, err := other.TryLock(ctx)
	require.NoError(t, err)

	release()

	_, err = l.TryLock(ctx)
	assert.ErrorIs(t, err, ErrLocked, "stale release must not drop the new holder's lock")
	releaseOther()
}
