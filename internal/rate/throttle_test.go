package rate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *rdb.Client) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	client := rdb.NewClient(&rdb.Options{Addr: server.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return server, client
}

func TestMemoryThrottle_BlocksAfterFiveAndResetsAfterWindow(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{t: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	th := NewMemoryThrottle(DefaultPolicy, clk.Now)

	for i := 0; i < 5; i++ {
		ok, err := th.Check(ctx, "a@x.com")
		require.NoError(t, err)
		require.True(t, ok, "attempt %d should be allowed", i+1)
		require.NoError(t, th.RecordFailure(ctx, "a@x.com"))
		clk.Advance(time.Minute)
	}
	ok, _ := th.Check(ctx, "a@x.com")
	require.False(t, ok)
	ok, _ = th.Check(ctx, " A@X.com")
	require.False(t, ok, "key is normalized")

	// exactly 15 minutes after the last failure still blocks
	clk.Advance(14 * time.Minute)
	ok, _ = th.Check(ctx, "a@x.com")
	require.False(t, ok)

	clk.Advance(time.Second)
	ok, _ = th.Check(ctx, "a@x.com")
	require.True(t, ok)

	att, _ := th.Inspect(ctx, "a@x.com")
	require.Zero(t, att.Count)
}

func TestMemoryThrottle_StaleEntryRestartsCount(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{t: time.Unix(0, 0)}
	th := NewMemoryThrottle(DefaultPolicy, clk.Now)

	for i := 0; i < 4; i++ {
		require.NoError(t, th.RecordFailure(ctx, "b@x.com"))
	}
	clk.Advance(16 * time.Minute)
	require.NoError(t, th.RecordFailure(ctx, "b@x.com"))

	att, _ := th.Inspect(ctx, "b@x.com")
	require.EqualValues(t, 1, att.Count)
}

func TestMemoryThrottle_Reset(t *testing.T) {
	ctx := context.Background()
	th := NewMemoryThrottle(Policy{MaxFailures: 2, Window: time.Minute}, nil)
	require.NoError(t, th.RecordFailure(ctx, "c@x.com"))
	require.NoError(t, th.RecordFailure(ctx, "c@x.com"))
	ok, _ := th.Check(ctx, "c@x.com")
	require.False(t, ok)

	require.NoError(t, th.Reset(ctx, "c@x.com"))
	ok, _ = th.Check(ctx, "c@x.com")
	require.True(t, ok)
}

func TestMemoryThrottle_ResetWithConcurrentFailures(t *testing.T) {
	ctx := context.Background()
	th := NewMemoryThrottle(Policy{MaxFailures: 100, Window: time.Minute}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, th.RecordFailure(ctx, "d@x.com"))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, th.Reset(ctx, "d@x.com"))
		}()
	}
	wg.Wait()

	att, err := th.Inspect(ctx, "d@x.com")
	require.NoError(t, err)
	require.LessOrEqual(t, att.Count, int64(20))

	require.NoError(t, th.Reset(ctx, "d@x.com"))
	att, _ = th.Inspect(ctx, "d@x.com")
	require.Zero(t, att.Count)
}

func TestRedisThrottle_WindowSlidesWithLastFailure(t *testing.T) {
	ctx := context.Background()
	server, client := newTestRedis(t)
	th := NewRedisThrottle(client, "prova:", DefaultPolicy)

	for i := 0; i < 5; i++ {
		ok, err := th.Check(ctx, "a@x.com")
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, th.RecordFailure(ctx, "a@x.com"))
		server.FastForward(2 * time.Minute)
	}
	ok, err := th.Check(ctx, "a@x.com")
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, server.Exists("prova:login:a@x.com"))

	att, err := th.Inspect(ctx, "a@x.com")
	require.NoError(t, err)
	require.EqualValues(t, 5, att.Count)
	require.Equal(t, 13*time.Minute+time.Millisecond, att.Expires)

	// exactly 15 minutes after the last failure still blocks
	server.FastForward(13 * time.Minute)
	ok, err = th.Check(ctx, "a@x.com")
	require.NoError(t, err)
	require.False(t, ok)

	server.FastForward(time.Second)
	ok, err = th.Check(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisThrottle_Reset(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	th := NewRedisThrottle(client, "", Policy{MaxFailures: 1, Window: time.Minute})

	require.NoError(t, th.RecordFailure(ctx, "d@x.com"))
	ok, _ := th.Check(ctx, "d@x.com")
	require.False(t, ok)
	require.NoError(t, th.Reset(ctx, "d@x.com"))
	ok, _ = th.Check(ctx, "d@x.com")
	require.True(t, ok)

	att, err := th.Inspect(ctx, "d@x.com")
	require.NoError(t, err)
	require.Zero(t, att.Count)
}

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	clk := &fakeClock{t: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter(2, time.Minute)
	l.Now = clk.Now

	r, _ := l.Allow(ctx, "ip")
	require.True(t, r.Allowed)
	r, _ = l.Allow(ctx, "ip")
	require.True(t, r.Allowed)
	r, _ = l.Allow(ctx, "ip")
	require.False(t, r.Allowed)
	require.Equal(t, time.Minute, r.RetryAfter)

	clk.Advance(time.Minute)
	r, _ = l.Allow(ctx, "ip")
	require.True(t, r.Allowed)
}

func TestRedisLimiter_Blocks(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	l := NewRedisLimiter(client, "rl:", 1, time.Minute)

	r, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, r.Allowed)
	r, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, r.Allowed)
	require.Greater(t, r.RetryAfter, time.Duration(0))
}
