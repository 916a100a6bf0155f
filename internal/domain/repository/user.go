package repository

import (
	"context"
	"time"
)

// User es la fila users del proveedor de identidad local.
type User struct {
	ID            string
	Email         string
	Name          string
	AvatarURL     string
	PasswordHash  string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserRepository es usado solo por identity/local.
type UserRepository interface {
	// Create retorna ErrConflict si el email ya existe.
	Create(ctx context.Context, u *User) error
	// GetByEmail retorna ErrNotFound si no existe.
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	SetPasswordHash(ctx context.Context, id, hash string) error
	MarkEmailVerified(ctx context.Context, id string) error
}
