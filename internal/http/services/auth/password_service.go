package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/prova/internal/identity"
	"github.com/dropDatabas3/prova/internal/observability/logger"
)

var ErrNotSupported = errors.New("operation not supported by identity provider")

// PasswordService cubre reset de password y confirmación de email.
type PasswordService interface {
	// Forgot nunca revela si el email existe: sólo falla por input vacío.
	Forgot(ctx context.Context, email string) error
	Reset(ctx context.Context, token, newPassword string) error
	VerifyEmail(ctx context.Context, token string) error
}

type passwordService struct {
	idp identity.Provider
}

func NewPasswordService(idp identity.Provider) PasswordService {
	return &passwordService{idp: idp}
}

func (s *passwordService) Forgot(ctx context.Context, email string) error {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return ErrMissingFields
	}
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("password"), logger.Email(email))
	if err := s.idp.SendPasswordReset(ctx, email); err != nil {
		log.Error("send password reset failed", logger.Err(err))
	}
	return nil
}

func (s *passwordService) Reset(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return ErrMissingFields
	}
	if err := s.idp.ResetPassword(ctx, token, newPassword); err != nil {
		if errors.Is(err, identity.ErrInvalidToken) || errors.Is(err, identity.ErrWeakPassword) {
			return err
		}
		return fmt.Errorf("reset password: %w", err)
	}
	logger.From(ctx).Info("password reset", logger.Layer("service"))
	return nil
}

func (s *passwordService) VerifyEmail(ctx context.Context, token string) error {
	v, ok := s.idp.(identity.EmailVerifier)
	if !ok {
		return ErrNotSupported
	}
	if token == "" {
		return ErrMissingFields
	}
	return v.VerifyEmail(ctx, token)
}
