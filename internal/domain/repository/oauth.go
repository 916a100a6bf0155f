package repository

import (
	"context"
	"time"
)

// OAuthAccount vincula un proveedor externo con un usuario.
type OAuthAccount struct {
	UserID            string
	Provider          string // "google" | "github"
	ProviderAccountID string
	CreatedAt         time.Time
}

// OAuthAccountRepository opera sobre oauth_accounts.
type OAuthAccountRepository interface {
	// Get retorna ErrNotFound si el par (provider, providerAccountID) no está vinculado.
	Get(ctx context.Context, provider, providerAccountID string) (*OAuthAccount, error)
	// Link inserta el vínculo. Si ya existe para el mismo usuario no es error;
	// si existe para otro usuario retorna ErrConflict.
	Link(ctx context.Context, acc OAuthAccount) error
}
