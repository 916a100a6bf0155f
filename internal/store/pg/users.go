package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/prova/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

type userRepo struct{ q querier }

const userColumns = `id, email, name, avatar_url, password_hash, email_verified, created_at, updated_at`

func (r *userRepo) Create(ctx context.Context, u *repository.User) error {
	const q = `
		INSERT INTO users (id, email, name, avatar_url, password_hash, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	_, err := r.q.Exec(ctx, q, u.ID, u.Email, u.Name, u.AvatarURL, u.PasswordHash, u.EmailVerified)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("pg: create user: %w", err)
	}
	return nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*repository.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepo) getOne(ctx context.Context, q string, arg string) (*repository.User, error) {
	var u repository.User
	err := r.q.QueryRow(ctx, q, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.AvatarURL, &u.PasswordHash, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("pg: get user: %w", err)
	}
	return &u, nil
}

func (r *userRepo) SetPasswordHash(ctx context.Context, id, hash string) error {
	tag, err := r.q.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("pg: set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) MarkEmailVerified(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE users SET email_verified = true, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pg: verify email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
