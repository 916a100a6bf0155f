package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/prova/internal/domain/repository"
	"github.com/jackc/pgx/v5"
)

type mfaRepo struct{ q querier }

func (r *mfaRepo) GetMFA(ctx context.Context, userID string) (repository.MFAState, error) {
	const q = `
		SELECT COALESCE(secret, ''), COALESCE(backup_codes, '{}'), is_enabled
		FROM user_mfa WHERE user_id = $1`

	var (
		secret  string
		codes   []string
		enabled bool
	)
	if err := r.q.QueryRow(ctx, q, userID).Scan(&secret, &codes, &enabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.MFANotSetUp{}, nil
		}
		return nil, fmt.Errorf("pg: get mfa: %w", err)
	}
	return stateFromRow(secret, codes, enabled)
}

func stateFromRow(secret string, codes []string, enabled bool) (repository.MFAState, error) {
	switch {
	case enabled && secret == "":
		return nil, repository.ErrInconsistentMFA
	case enabled:
		return repository.MFAEnabled{Secret: secret, BackupCodeHashes: codes}, nil
	case secret != "":
		return repository.MFAPending{Secret: secret, BackupCodeHashes: codes}, nil
	default:
		return repository.MFANotSetUp{}, nil
	}
}

func (r *mfaRepo) SavePending(ctx context.Context, userID, secret string, hashes []string) error {
	if userID == "" || secret == "" {
		return repository.ErrInvalidInput
	}
	if hashes == nil {
		hashes = []string{}
	}
	// El WHERE del DO UPDATE evita pisar un registro habilitado: en ese caso
	// no se afecta ninguna fila.
	const q = `
		INSERT INTO user_mfa (user_id, secret, backup_codes, is_enabled, created_at, updated_at)
		VALUES ($1, $2, $3, false, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET secret = EXCLUDED.secret, backup_codes = EXCLUDED.backup_codes, updated_at = NOW()
		WHERE user_mfa.is_enabled = false`

	tag, err := r.q.Exec(ctx, q, userID, secret, hashes)
	if err != nil {
		return fmt.Errorf("pg: save pending mfa: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (r *mfaRepo) Enable(ctx context.Context, userID, secret string) error {
	const q = `
		UPDATE user_mfa SET is_enabled = true, updated_at = NOW()
		WHERE user_id = $1 AND secret = $2 AND is_enabled = false`

	tag, err := r.q.Exec(ctx, q, userID, secret)
	if err != nil {
		return fmt.Errorf("pg: enable mfa: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrConflict
	}
	return nil
}

// ConsumeBackupCode: el UPDATE condicional toma el lock de la fila; un UPDATE
// concurrente re-evalúa el WHERE sobre la versión nueva y no afecta filas.
func (r *mfaRepo) ConsumeBackupCode(ctx context.Context, userID, codeHash string) (bool, error) {
	const q = `
		UPDATE user_mfa
		SET backup_codes = array_remove(backup_codes, $2), updated_at = NOW()
		WHERE user_id = $1 AND secret IS NOT NULL AND $2 = ANY(backup_codes)`

	tag, err := r.q.Exec(ctx, q, userID, codeHash)
	if err != nil {
		return false, fmt.Errorf("pg: consume backup code: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *mfaRepo) Disable(ctx context.Context, userID string) error {
	const q = `
		UPDATE user_mfa
		SET is_enabled = false, secret = NULL, backup_codes = '{}', updated_at = NOW()
		WHERE user_id = $1`

	if _, err := r.q.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("pg: disable mfa: %w", err)
	}
	return nil
}
