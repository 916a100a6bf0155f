package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/prova/internal/domain/repository"
	"github.com/dropDatabas3/prova/internal/store/memory"
)

var errBoom = errors.New("boom")

// failingBootstrap falla en el paso indicado y cuenta perfiles creados.
type failingBootstrap struct {
	repository.BootstrapRepository
	failAt   string
	profiles int32
}

func (f *failingBootstrap) HasProfile(ctx context.Context, userID string) (bool, error) {
	if f.failAt == StepCheckProfile {
		return false, errBoom
	}
	return f.BootstrapRepository.HasProfile(ctx, userID)
}

func (f *failingBootstrap) CreateProfile(ctx context.Context, userID, role string) error {
	atomic.AddInt32(&f.profiles, 1)
	if f.failAt == StepProfile {
		return errBoom
	}
	return f.BootstrapRepository.CreateProfile(ctx, userID, role)
}

func (f *failingBootstrap) CreateUsageCounters(ctx context.Context, userID string, periods []string) error {
	if f.failAt == StepUsage {
		return errBoom
	}
	return f.BootstrapRepository.CreateUsageCounters(ctx, userID, periods)
}

func (f *failingBootstrap) CreateDefaultChatSession(ctx context.Context, userID string) error {
	if f.failAt == StepChatSession {
		return errBoom
	}
	return f.BootstrapRepository.CreateDefaultChatSession(ctx, userID)
}

func TestBootstrap_StepErrors(t *testing.T) {
	for _, step := range []string{StepCheckProfile, StepProfile, StepUsage, StepChatSession} {
		t.Run(step, func(t *testing.T) {
			b := NewBootstrapper(&failingBootstrap{BootstrapRepository: memory.New().Bootstrap(), failAt: step})
			err := b.Ensure(context.Background(), "u1")

			var be *BootstrapError
			require.True(t, errors.As(err, &be))
			require.Equal(t, step, be.Step)
			require.Equal(t, "u1", be.UserID)
			require.ErrorIs(t, err, ErrBootstrapFailed)
			require.ErrorIs(t, err, errBoom)
		})
	}
}

func TestBootstrap_ExistingProfileIsNoop(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.Bootstrap().CreateProfile(ctx, "u1", "pro"))

	b := NewBootstrapper(store.Bootstrap())
	require.NoError(t, b.Ensure(ctx, "u1"))

	p, _ := store.Profile("u1")
	require.Equal(t, "pro", p.Role)
	require.Empty(t, store.ChatSessions("u1"))
}

func TestBootstrap_ConcurrentFirstLogins(t *testing.T) {
	store := memory.New()
	repo := &failingBootstrap{BootstrapRepository: store.Bootstrap()}
	b := NewBootstrapper(repo)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, b.Ensure(context.Background(), "u1"))
		}()
	}
	wg.Wait()

	require.Len(t, store.ChatSessions("u1"), 1)
	require.Equal(t, map[string]int{"daily": 0, "monthly": 0}, store.UsageCounters("u1"))
}
