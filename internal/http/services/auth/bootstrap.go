package auth

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/prova/internal/domain/repository"
	"github.com/dropDatabas3/prova/internal/metrics"
	"github.com/dropDatabas3/prova/internal/observability/logger"
)

// Pasos del primer login (aparecen en logs y en BootstrapError.Step).
const (
	StepCheckProfile = "check_profile"
	StepProfile      = "profile"
	StepUsage        = "usage_counters"
	StepChatSession  = "chat_session"
)

// Bootstrapper crea perfil, contadores de uso y sesión de chat en el primer login.
type Bootstrapper struct {
	repo  repository.BootstrapRepository
	group singleflight.Group
}

func NewBootstrapper(repo repository.BootstrapRepository) *Bootstrapper {
	return &Bootstrapper{repo: repo}
}

// Ensure es idempotente. Dos logins simultáneos del mismo usuario en este
// proceso comparten una sola ejecución; entre procesos alcanza con que cada
// Create* sea insert-if-absent.
func (b *Bootstrapper) Ensure(ctx context.Context, userID string) error {
	_, err, _ := b.group.Do(userID, func() (any, error) {
		return nil, b.ensure(ctx, userID)
	})
	return err
}

func (b *Bootstrapper) ensure(ctx context.Context, userID string) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.bootstrap"), logger.UserID(userID))

	fail := func(step string, err error) error {
		log.Error("first login bootstrap failed", logger.Step(step), logger.Err(err))
		metrics.ObserveBootstrapFailure(step)
		return &BootstrapError{UserID: userID, Step: step, Err: err}
	}

	has, err := b.repo.HasProfile(ctx, userID)
	if err != nil {
		return fail(StepCheckProfile, err)
	}
	if has {
		return nil
	}

	// Paso 1: perfil con rol por defecto
	if err := b.repo.CreateProfile(ctx, userID, repository.DefaultRole); err != nil {
		return fail(StepProfile, err)
	}
	// Paso 2: contadores de uso
	periods := []string{repository.UsagePeriodDaily, repository.UsagePeriodMonthly}
	if err := b.repo.CreateUsageCounters(ctx, userID, periods); err != nil {
		return fail(StepUsage, err)
	}
	// Paso 3: sesión de chat activa sin endpoints
	if err := b.repo.CreateDefaultChatSession(ctx, userID); err != nil {
		return fail(StepChatSession, err)
	}

	log.Info("first login bootstrap done")
	return nil
}
