package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/prova/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

type oauthRepo struct{ q querier }

func (r *oauthRepo) Get(ctx context.Context, provider, providerAccountID string) (*repository.OAuthAccount, error) {
	const q = `
		SELECT user_id, provider, provider_account_id, created_at
		FROM oauth_accounts WHERE provider = $1 AND provider_account_id = $2`

	var a repository.OAuthAccount
	err := r.q.QueryRow(ctx, q, provider, providerAccountID).
		Scan(&a.UserID, &a.Provider, &a.ProviderAccountID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("pg: get oauth account: %w", err)
	}
	return &a, nil
}

func (r *oauthRepo) Link(ctx context.Context, acc repository.OAuthAccount) error {
	const q = `
		INSERT INTO oauth_accounts (user_id, provider, provider_account_id, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (provider, provider_account_id) DO NOTHING`

	tag, err := r.q.Exec(ctx, q, acc.UserID, acc.Provider, acc.ProviderAccountID)
	if err != nil {
		return fmt.Errorf("pg: link oauth account: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	existing, err := r.Get(ctx, acc.Provider, acc.ProviderAccountID)
	if err != nil {
		return err
	}
	if existing.UserID != acc.UserID {
		return repository.ErrConflict
	}
	return nil
}
