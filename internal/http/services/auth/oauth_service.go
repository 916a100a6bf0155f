package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/prova/internal/cache"
	"github.com/dropDatabas3/prova/internal/domain/repository"
	"github.com/dropDatabas3/prova/internal/identity"
	"github.com/dropDatabas3/prova/internal/metrics"
	"github.com/dropDatabas3/prova/internal/oauth"
	"github.com/dropDatabas3/prova/internal/observability/logger"
	"github.com/dropDatabas3/prova/internal/rate"
	"github.com/dropDatabas3/prova/internal/security/token"
)

const (
	challengeKeyPrefix = "mfa:challenge:"
	stateKeyPrefix     = "oauth:state:"

	DefaultChallengeTTL = 5 * time.Minute
	DefaultStateTTL     = 10 * time.Minute
)

var (
	ErrInvalidState = errors.New("oauth state invalid or expired")
	ErrOAuthFailed  = errors.New("oauth exchange failed")
)

// MFAChallenge se entrega en lugar de la sesión cuando un login OAuth
// requiere segundo factor. Se completa con CompleteChallenge.
type MFAChallenge struct {
	Token     string
	Provider  string
	ExpiresAt time.Time
}

// OAuthResult: exactamente uno de los dos campos viene seteado.
type OAuthResult struct {
	Identity  *identity.Identity
	Challenge *MFAChallenge
}

type OAuthService interface {
	// Start devuelve la URL de consentimiento del proveedor.
	Start(ctx context.Context, provider string) (string, error)
	// Callback valida el state, canjea el code y resuelve el login.
	Callback(ctx context.Context, provider, state, code string) (*OAuthResult, error)
	OAuthSignIn(ctx context.Context, provider string, p *oauth.Profile) (*OAuthResult, error)
	CompleteChallenge(ctx context.Context, challengeToken, mfaToken string) (*identity.Identity, error)
}

type OAuthDeps struct {
	Providers    oauth.Registry
	Identity     identity.Provider
	Accounts     repository.OAuthAccountRepository
	MFA          MFAService
	Bootstrapper *Bootstrapper
	Cache        cache.Client
	Throttle     rate.Throttle
	ChallengeTTL time.Duration
	StateTTL     time.Duration
	Now          func() time.Time
}

type oauthService struct {
	deps OAuthDeps
}

func NewOAuthService(d OAuthDeps) OAuthService {
	if d.ChallengeTTL <= 0 {
		d.ChallengeTTL = DefaultChallengeTTL
	}
	if d.StateTTL <= 0 {
		d.StateTTL = DefaultStateTTL
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &oauthService{deps: d}
}

// pendingChallenge es lo que se guarda en cache bajo mfa:challenge:<token>.
type pendingChallenge struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Verified  bool   `json:"verified"`
	Provider  string `json:"provider"`
}

func (s *oauthService) Start(ctx context.Context, provider string) (string, error) {
	p, err := s.deps.Providers.Get(provider)
	if err != nil {
		return "", err
	}
	state, err := token.Opaque(24)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	if err := s.deps.Cache.Set(ctx, stateKeyPrefix+state, provider, s.deps.StateTTL); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}
	return p.AuthCodeURL(state), nil
}

func (s *oauthService) Callback(ctx context.Context, provider, state, code string) (*OAuthResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("oauth"), logger.Provider(provider))

	p, err := s.deps.Providers.Get(provider)
	if err != nil {
		return nil, err
	}
	if state == "" || code == "" {
		return nil, ErrInvalidState
	}

	// Paso 1: state de un solo uso y para el mismo proveedor
	got, err := s.deps.Cache.Take(ctx, stateKeyPrefix+state)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, ErrInvalidState
		}
		return nil, fmt.Errorf("take state: %w", err)
	}
	if got != provider {
		log.Warn("oauth state issued for another provider")
		return nil, ErrInvalidState
	}

	// Paso 2: canje del code
	prof, err := p.Exchange(ctx, code)
	if err != nil {
		log.Warn("oauth exchange failed", logger.Err(err))
		metrics.ObserveSignIn("oauth", metrics.OutcomeError)
		if errors.Is(err, oauth.ErrNoEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrOAuthFailed, err)
	}

	return s.OAuthSignIn(ctx, provider, prof)
}

func (s *oauthService) OAuthSignIn(ctx context.Context, provider string, p *oauth.Profile) (*OAuthResult, error) {
	if p == nil || p.Email == "" {
		return nil, oauth.ErrNoEmail
	}
	email := identity.NormalizeEmail(p.Email)
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("oauth"), logger.Provider(provider), logger.Email(email))

	// Paso 1: usuario por email, o alta con email ya confirmado por el proveedor
	id, err := s.deps.Identity.FindByEmail(ctx, email)
	if errors.Is(err, identity.ErrUserNotFound) {
		id, err = s.deps.Identity.CreateUser(ctx, identity.CreateUserInput{
			Email:          email,
			Name:           p.Name,
			AvatarURL:      p.AvatarURL,
			EmailConfirmed: p.EmailVerified,
		})
		if err == nil {
			log.Info("user created from oauth profile", logger.UserID(id.ID))
		}
	}
	if err != nil {
		metrics.ObserveSignIn("oauth", metrics.OutcomeError)
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	log = log.With(logger.UserID(id.ID))

	// Paso 2: vínculo provider → usuario
	if p.ProviderAccountID != "" {
		err := s.deps.Accounts.Link(ctx, repository.OAuthAccount{
			UserID:            id.ID,
			Provider:          provider,
			ProviderAccountID: p.ProviderAccountID,
		})
		if repository.IsConflict(err) {
			log.Warn("provider account linked to another user")
			metrics.ObserveSignIn("oauth", metrics.OutcomeInvalidCredentials)
			return nil, ErrAccountLinked
		}
		if err != nil {
			return nil, fmt.Errorf("link oauth account: %w", err)
		}
	}

	// Paso 3: primer login
	if err := s.deps.Bootstrapper.Ensure(ctx, id.ID); err != nil {
		metrics.ObserveSignIn("oauth", metrics.OutcomeBootstrapFailed)
		return nil, err
	}

	// Paso 4: gate MFA
	enabled, err := s.deps.MFA.Status(ctx, id.ID)
	if err != nil {
		return nil, fmt.Errorf("mfa status: %w", err)
	}
	if !enabled {
		metrics.ObserveSignIn("oauth", metrics.OutcomeSuccess)
		log.Info("oauth signin ok")
		return &OAuthResult{Identity: id}, nil
	}

	ch, err := s.issueChallenge(ctx, provider, id)
	if err != nil {
		return nil, err
	}
	metrics.ObserveSignIn("oauth", metrics.OutcomeMFARequired)
	log.Info("oauth signin requires mfa")
	return &OAuthResult{Challenge: ch}, nil
}

func (s *oauthService) issueChallenge(ctx context.Context, provider string, id *identity.Identity) (*MFAChallenge, error) {
	payload, err := json.Marshal(pendingChallenge{
		UserID:    id.ID,
		Email:     id.Email,
		Name:      id.Name,
		AvatarURL: id.AvatarURL,
		Verified:  id.EmailVerified,
		Provider:  provider,
	})
	if err != nil {
		return nil, err
	}
	tok := uuid.NewString()
	if err := s.deps.Cache.Set(ctx, challengeKeyPrefix+tok, string(payload), s.deps.ChallengeTTL); err != nil {
		return nil, fmt.Errorf("store mfa challenge: %w", err)
	}
	return &MFAChallenge{Token: tok, Provider: provider, ExpiresAt: s.deps.Now().Add(s.deps.ChallengeTTL)}, nil
}

func (s *oauthService) CompleteChallenge(ctx context.Context, challengeToken, mfaToken string) (*identity.Identity, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("oauth"), logger.Op("CompleteChallenge"))

	if challengeToken == "" || mfaToken == "" {
		return nil, ErrMissingFields
	}

	// el challenge se consume aunque el código sea incorrecto
	raw, err := s.deps.Cache.Take(ctx, challengeKeyPrefix+challengeToken)
	if err != nil {
		if cache.IsNotFound(err) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("take mfa challenge: %w", err)
	}
	var pc pendingChallenge
	if err := json.Unmarshal([]byte(raw), &pc); err != nil {
		log.Error("corrupt mfa challenge", logger.Err(err))
		return nil, ErrChallengeNotFound
	}
	log = log.With(logger.UserID(pc.UserID), logger.Provider(pc.Provider))

	ok, err := s.deps.MFA.Verify(ctx, pc.UserID, mfaToken)
	if err != nil {
		return nil, fmt.Errorf("mfa verify: %w", err)
	}
	if !ok {
		if s.deps.Throttle != nil {
			if err := s.deps.Throttle.RecordFailure(ctx, pc.Email); err != nil {
				log.Warn("throttle record failed", logger.Err(err))
			}
		}
		metrics.ObserveSignIn("challenge", metrics.OutcomeInvalidMFA)
		log.Info("invalid mfa token on challenge")
		return nil, ErrInvalidMFAToken
	}

	metrics.ObserveSignIn("challenge", metrics.OutcomeSuccess)
	log.Info("mfa challenge completed")
	return &identity.Identity{
		ID:            pc.UserID,
		Email:         pc.Email,
		Name:          pc.Name,
		AvatarURL:     pc.AvatarURL,
		EmailVerified: pc.Verified,
	}, nil
}
