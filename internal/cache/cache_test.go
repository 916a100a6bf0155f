package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return server, client
}

func clients(t *testing.T) map[string]Client {
	_, rc := newTestRedis(t)
	return map[string]Client{
		"memory": NewMemory("t"),
		"redis":  NewRedis(rc, "t"),
	}
}

func TestClient_GetSetTake(t *testing.T) {
	ctx := context.Background()
	for name, c := range clients(t) {
		t.Run(name, func(t *testing.T) {
			_, err := c.Get(ctx, "missing")
			require.True(t, IsNotFound(err))

			require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
			v, err := c.Get(ctx, "k")
			require.NoError(t, err)
			require.Equal(t, "v", v)

			v, err = c.Take(ctx, "k")
			require.NoError(t, err)
			require.Equal(t, "v", v)

			_, err = c.Take(ctx, "k")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, c.Set(ctx, "d", "x", 0))
			require.NoError(t, c.Delete(ctx, "d"))
			_, err = c.Get(ctx, "d")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestRedis_TTLExpires(t *testing.T) {
	server, rc := newTestRedis(t)
	c := NewRedis(rc, "t")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 5*time.Minute))
	require.True(t, server.Exists("t:k"))
	server.FastForward(6 * time.Minute)

	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_TakeIsSingleUse(t *testing.T) {
	c := NewMemory("")
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "challenge", "u1", time.Minute))

	var got int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Take(ctx, "challenge"); err == nil {
				atomic.AddInt32(&got, 1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, got)
}
