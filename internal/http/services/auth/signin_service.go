package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/prova/internal/identity"
	"github.com/dropDatabas3/prova/internal/metrics"
	"github.com/dropDatabas3/prova/internal/observability/logger"
	"github.com/dropDatabas3/prova/internal/rate"
	"go.uber.org/zap"
)

// SignInInput es el body de POST /auth/signin ya decodificado.
// Con Name presente el request es un alta, no un login.
type SignInInput struct {
	Email    string
	Password string
	Name     string
	MFAToken string
}

// SignInService implementa el flujo de credenciales: throttle, password,
// segundo factor y bootstrap del primer login.
type SignInService interface {
	SignIn(ctx context.Context, in SignInInput) (*identity.Identity, error)
}

// SignInDeps contiene las dependencias del sign-in.
type SignInDeps struct {
	Identity     identity.Provider
	Throttle     rate.Throttle
	MFA          MFAService
	Bootstrapper *Bootstrapper
}

type signInService struct {
	deps SignInDeps
}

// NewSignInService crea el service de sign-in.
func NewSignInService(d SignInDeps) SignInService {
	return &signInService{deps: d}
}

func (s *signInService) SignIn(ctx context.Context, in SignInInput) (*identity.Identity, error) {
	email := identity.NormalizeEmail(in.Email)
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("signin"), logger.Email(email))

	if email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	// Paso 1: alta. Nunca abre sesión; el usuario primero verifica el email.
	if name := strings.TrimSpace(in.Name); name != "" {
		return nil, s.signUp(ctx, log, email, in.Password, name)
	}

	// Paso 2: throttle por email
	if !s.allowed(ctx, log, email) {
		log.Warn("signin blocked by throttle")
		metrics.ObserveSignIn("password", metrics.OutcomeThrottled)
		return nil, ErrTooManyAttempts
	}

	// Paso 3: password
	id, err := s.deps.Identity.SignIn(ctx, email, in.Password)
	if err != nil {
		s.recordFailure(ctx, log, email)
		if errors.Is(err, identity.ErrInvalidCredentials) || errors.Is(err, identity.ErrUserNotFound) {
			log.Info("invalid credentials")
			metrics.ObserveSignIn("password", metrics.OutcomeInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		log.Error("identity provider signin failed", logger.Err(err))
		metrics.ObserveSignIn("password", metrics.OutcomeError)
		return nil, ErrInvalidCredentials
	}
	log = log.With(logger.UserID(id.ID))

	// Paso 4: segundo factor
	enabled, err := s.deps.MFA.Status(ctx, id.ID)
	if err != nil {
		log.Error("mfa status failed", logger.Err(err))
		metrics.ObserveSignIn("password", metrics.OutcomeError)
		return nil, fmt.Errorf("mfa status: %w", err)
	}
	if enabled {
		if strings.TrimSpace(in.MFAToken) == "" {
			metrics.ObserveSignIn("password", metrics.OutcomeMFARequired)
			return nil, ErrMFARequired
		}
		ok, err := s.deps.MFA.Verify(ctx, id.ID, in.MFAToken)
		if err != nil {
			log.Error("mfa verify failed", logger.Err(err))
			metrics.ObserveSignIn("password", metrics.OutcomeError)
			return nil, fmt.Errorf("mfa verify: %w", err)
		}
		if !ok {
			s.recordFailure(ctx, log, email)
			log.Info("invalid mfa token")
			metrics.ObserveSignIn("password", metrics.OutcomeInvalidMFA)
			return nil, ErrInvalidMFAToken
		}
	}

	// Paso 5: login ok, se limpia el contador
	if err := s.deps.Throttle.Reset(ctx, email); err != nil {
		log.Warn("throttle reset failed", logger.Err(err))
	}

	// Paso 6: primer login
	if err := s.deps.Bootstrapper.Ensure(ctx, id.ID); err != nil {
		metrics.ObserveSignIn("password", metrics.OutcomeBootstrapFailed)
		return nil, err
	}

	metrics.ObserveSignIn("password", metrics.OutcomeSuccess)
	log.Info("signin ok", logger.Bool("mfa", enabled))
	return id, nil
}

func (s *signInService) signUp(ctx context.Context, log *zap.Logger, email, password, name string) error {
	err := s.deps.Identity.SignUp(ctx, email, password, identity.SignUpAttrs{Name: name})
	switch {
	case err == nil, errors.Is(err, identity.ErrEmailTaken):
		// mismo resultado con email ya registrado, para no revelar cuentas
		log.Info("signup accepted, verification pending", logger.Bool("existing", err != nil))
		metrics.ObserveSignIn("password", metrics.OutcomeVerificationPending)
		return ErrVerificationPending
	case errors.Is(err, identity.ErrWeakPassword):
		return err
	default:
		log.Error("signup failed", logger.Err(err))
		return fmt.Errorf("signup: %w", err)
	}
}

// allowed consulta el throttle. Un error del store no bloquea el login.
func (s *signInService) allowed(ctx context.Context, log *zap.Logger, email string) bool {
	ok, err := s.deps.Throttle.Check(ctx, email)
	if err != nil {
		log.Warn("throttle check failed, allowing", logger.Err(err))
		metrics.ThrottleFailOpenTotal.Inc()
		return true
	}
	return ok
}

func (s *signInService) recordFailure(ctx context.Context, log *zap.Logger, email string) {
	if err := s.deps.Throttle.RecordFailure(ctx, email); err != nil {
		log.Warn("throttle record failed", logger.Err(err))
		metrics.ThrottleFailOpenTotal.Inc()
	}
}
