// Package identity abstrae el proveedor de cuentas (password, alta, reset).
//
// El servicio de sign-in no conoce si las credenciales viven en la tabla
// users local o en un GoTrue/Supabase externo.
package identity

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	ErrUserNotFound       = errors.New("identity: user not found")
	ErrEmailTaken         = errors.New("identity: email already registered")
	ErrInvalidToken       = errors.New("identity: invalid or expired token")
	ErrWeakPassword       = errors.New("identity: weak password")
)

// Identity es lo que el resto del sistema sabe de un usuario autenticado.
type Identity struct {
	ID            string
	Email         string
	Name          string
	AvatarURL     string
	EmailVerified bool
}

type SignUpAttrs struct {
	Name string
}

type CreateUserInput struct {
	Email          string
	Password       string // vacío para cuentas sólo-OAuth
	Name           string
	AvatarURL      string
	EmailConfirmed bool
}

type Provider interface {
	// SignIn valida email/password. Cualquier falla de credenciales es ErrInvalidCredentials.
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	// SignUp registra y dispara la verificación de email. No inicia sesión.
	SignUp(ctx context.Context, email, password string, attrs SignUpAttrs) error
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*Identity, error)
	// SendPasswordReset no revela si el email existe.
	SendPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// EmailVerifier lo implementan los providers que confirman emails por link propio.
type EmailVerifier interface {
	VerifyEmail(ctx context.Context, token string) error
}

// NormalizeEmail: trim + lower.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
