// Package oauth define el contrato común de los proveedores OAuth 2.0
// (Google, GitHub) usados para el sign-in social.
package oauth

import (
	"context"
	"errors"
)

var (
	ErrUnknownProvider = errors.New("oauth: unknown provider")
	ErrNoEmail         = errors.New("oauth: provider returned no verified email")
)

// Profile es la identidad externa ya normalizada.
type Profile struct {
	Provider          string
	ProviderAccountID string
	Email             string
	EmailVerified     bool
	Name              string
	AvatarURL         string
}

type Provider interface {
	Name() string
	// AuthCodeURL arma la URL de consentimiento con el state dado.
	AuthCodeURL(state string) string
	// Exchange canjea el code y trae el perfil del usuario.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Registry resuelve proveedores habilitados por nombre.
type Registry map[string]Provider

func (r Registry) Get(name string) (Provider, error) {
	p, ok := r[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}
