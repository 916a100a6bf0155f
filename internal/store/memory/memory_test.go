package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/prova/internal/domain/repository"
)

func TestMFALifecycle(t *testing.T) {
	ctx := context.Background()
	repo := New().MFA()

	st, err := repo.GetMFA(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, repository.MFANotSetUp{}, st)

	require.NoError(t, repo.SavePending(ctx, "u1", "S1", []string{"a", "b"}))
	require.NoError(t, repo.SavePending(ctx, "u1", "S2", []string{"c"}))
	st, _ = repo.GetMFA(ctx, "u1")
	require.Equal(t, repository.MFAPending{Secret: "S2", BackupCodeHashes: []string{"c"}}, st)

	require.ErrorIs(t, repo.Enable(ctx, "u1", "S1"), repository.ErrConflict)
	require.NoError(t, repo.Enable(ctx, "u1", "S2"))
	require.ErrorIs(t, repo.SavePending(ctx, "u1", "S3", nil), repository.ErrConflict)

	require.NoError(t, repo.Disable(ctx, "u1"))
	require.NoError(t, repo.Disable(ctx, "u1"))
	st, _ = repo.GetMFA(ctx, "u1")
	require.Equal(t, repository.MFANotSetUp{}, st)
}

func TestConsumeBackupCode_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	repo := New().MFA()
	require.NoError(t, repo.SavePending(ctx, "u1", "S", []string{"x", "y"}))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ConsumeBackupCode(ctx, "u1", "x")
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, wins)

	st, _ := repo.GetMFA(ctx, "u1")
	require.Equal(t, []string{"y"}, st.(repository.MFAPending).BackupCodeHashes)
}

func TestBootstrapIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	b := s.Bootstrap()

	for i := 0; i < 2; i++ {
		require.NoError(t, b.CreateProfile(ctx, "u1", repository.DefaultRole))
		require.NoError(t, b.CreateUsageCounters(ctx, "u1", []string{"daily", "monthly"}))
		require.NoError(t, b.CreateDefaultChatSession(ctx, "u1"))
	}
	ok, _ := b.HasProfile(ctx, "u1")
	require.True(t, ok)
	require.Equal(t, map[string]int{"daily": 0, "monthly": 0}, s.UsageCounters("u1"))
	require.Len(t, s.ChatSessions("u1"), 1)
	require.Equal(t, "active", s.ChatSessions("u1")[0].Status)
}
