package pg

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type bootstrapRepo struct{ q querier }

func (r *bootstrapRepo) HasProfile(ctx context.Context, userID string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM user_profiles WHERE user_id = $1)`, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("pg: has profile: %w", err)
	}
	return ok, nil
}

func (r *bootstrapRepo) CreateProfile(ctx context.Context, userID, role string) error {
	const q = `
		INSERT INTO user_profiles (user_id, role, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.q.Exec(ctx, q, userID, role); err != nil {
		return fmt.Errorf("pg: create profile: %w", err)
	}
	return nil
}

func (r *bootstrapRepo) CreateUsageCounters(ctx context.Context, userID string, periods []string) error {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pg: begin usage: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const q = `
		INSERT INTO api_usage (user_id, period, count, updated_at)
		VALUES ($1, $2, 0, NOW())
		ON CONFLICT (user_id, period) DO NOTHING`
	for _, p := range periods {
		if _, err := tx.Exec(ctx, q, userID, p); err != nil {
			return fmt.Errorf("pg: create usage %s: %w", p, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg: commit usage: %w", err)
	}
	return nil
}

func (r *bootstrapRepo) CreateDefaultChatSession(ctx context.Context, userID string) error {
	const q = `
		INSERT INTO chat_sessions (id, user_id, status, endpoints, created_at, updated_at)
		SELECT $1, $2, 'active', '[]'::jsonb, NOW(), NOW()
		WHERE NOT EXISTS (SELECT 1 FROM chat_sessions WHERE user_id = $2)`

	if _, err := r.q.Exec(ctx, q, uuid.NewString(), userID); err != nil {
		return fmt.Errorf("pg: create chat session: %w", err)
	}
	return nil
}
