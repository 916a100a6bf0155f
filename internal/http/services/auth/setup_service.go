package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/prova/internal/audit"
	"github.com/dropDatabas3/prova/internal/domain/repository"
	"github.com/dropDatabas3/prova/internal/identity"
	"github.com/dropDatabas3/prova/internal/observability/logger"
)

// AccountSetupInput es el body de POST /auth/setup.
type AccountSetupInput struct {
	Email             string
	Password          string
	Name              string
	Provider          string
	ProviderAccountID string
	AvatarURL         string
}

// AccountSetupService da de alta una cuenta ya confirmada (onboarding desde
// el frontend después de un OAuth) y deja listas sus tablas.
type AccountSetupService interface {
	Setup(ctx context.Context, in AccountSetupInput) (*identity.Identity, error)
}

type AccountSetupDeps struct {
	Identity     identity.Provider
	Accounts     repository.OAuthAccountRepository
	Bootstrapper *Bootstrapper
}

type accountSetupService struct {
	deps AccountSetupDeps
}

func NewAccountSetupService(d AccountSetupDeps) AccountSetupService {
	return &accountSetupService{deps: d}
}

func (s *accountSetupService) Setup(ctx context.Context, in AccountSetupInput) (*identity.Identity, error) {
	email := identity.NormalizeEmail(in.Email)
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if email == "" || in.Password == "" || strings.TrimSpace(in.Name) == "" {
		return nil, ErrMissingFields
	}
	if (provider == "") != (in.ProviderAccountID == "") {
		return nil, ErrMissingFields
	}
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("account_setup"), logger.Email(email))

	// Paso 1: identidad con email confirmado. Re-ejecutar el setup no falla.
	id, err := s.deps.Identity.CreateUser(ctx, identity.CreateUserInput{
		Email:          email,
		Password:       in.Password,
		Name:           strings.TrimSpace(in.Name),
		AvatarURL:      in.AvatarURL,
		EmailConfirmed: true,
	})
	if errors.Is(err, identity.ErrEmailTaken) {
		id, err = s.deps.Identity.FindByEmail(ctx, email)
	}
	if err != nil {
		if errors.Is(err, identity.ErrWeakPassword) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	log = log.With(logger.UserID(id.ID))

	// Paso 2: tablas del primer login
	if err := s.deps.Bootstrapper.Ensure(ctx, id.ID); err != nil {
		return nil, err
	}

	// Paso 3: vínculo OAuth
	if provider != "" {
		err := s.deps.Accounts.Link(ctx, repository.OAuthAccount{
			UserID:            id.ID,
			Provider:          provider,
			ProviderAccountID: in.ProviderAccountID,
		})
		if repository.IsConflict(err) {
			return nil, ErrAccountLinked
		}
		if err != nil {
			return nil, fmt.Errorf("link oauth account: %w", err)
		}
		audit.Log(ctx, audit.EventOAuthLinked, logger.UserID(id.ID), logger.Provider(provider))
	}

	log.Info("account setup done", logger.Provider(provider))
	return id, nil
}
