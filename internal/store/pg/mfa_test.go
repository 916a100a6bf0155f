package pg

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/prova/internal/domain/repository"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestMFARepo_GetMFA_States(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name    string
		secret  string
		codes   []string
		enabled bool
		want    repository.MFAState
	}{
		{"not set up", "", []string{}, false, repository.MFANotSetUp{}},
		{"pending", "SECRET", []string{"h1"}, false, repository.MFAPending{Secret: "SECRET", BackupCodeHashes: []string{"h1"}}},
		{"enabled", "SECRET", []string{"h1", "h2"}, true, repository.MFAEnabled{Secret: "SECRET", BackupCodeHashes: []string{"h1", "h2"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := newMock(t)
			repo := newStore(mock).MFA()

			mock.ExpectQuery(`SELECT COALESCE\(secret, ''\), COALESCE\(backup_codes, '\{\}'\), is_enabled\s+FROM user_mfa WHERE user_id = \$1`).
				WithArgs("u1").
				WillReturnRows(pgxmock.NewRows([]string{"secret", "backup_codes", "is_enabled"}).
					AddRow(tc.secret, tc.codes, tc.enabled))

			got, err := repo.GetMFA(ctx, "u1")
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMFARepo_GetMFA_NoRowIsNotSetUp(t *testing.T) {
	mock := newMock(t)
	repo := newStore(mock).MFA()

	mock.ExpectQuery(`FROM user_mfa WHERE user_id = \$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetMFA(context.Background(), "ghost")
	require.NoError(t, err)
	require.Equal(t, repository.MFANotSetUp{}, got)
}

func TestMFARepo_GetMFA_EnabledWithoutSecretIsInconsistent(t *testing.T) {
	mock := newMock(t)
	repo := newStore(mock).MFA()

	mock.ExpectQuery(`FROM user_mfa WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"secret", "backup_codes", "is_enabled"}).
			AddRow("", []string{}, true))

	_, err := repo.GetMFA(context.Background(), "u1")
	require.ErrorIs(t, err, repository.ErrInconsistentMFA)
}

func TestMFARepo_SavePending(t *testing.T) {
	mock := newMock(t)
	repo := newStore(mock).MFA()

	mock.ExpectExec(`INSERT INTO user_mfa .* ON CONFLICT \(user_id\) DO UPDATE .* WHERE user_mfa\.is_enabled = false`).
		WithArgs("u1", "SECRET", []string{"h1"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.SavePending(context.Background(), "u1", "SECRET", []string{"h1"}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMFARepo_SavePending_EnabledRowIsConflict(t *testing.T) {
	mock := newMock(t)
	repo := newStore(mock).MFA()

	mock.ExpectExec(`INSERT INTO user_mfa`).
		WithArgs("u1", "SECRET", []string{}).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := repo.SavePending(context.Background(), "u1", "SECRET", nil)
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestMFARepo_Enable(t *testing.T) {
	mock := newMock(t)
	repo := newStore(mock).MFA()

	mock.ExpectExec(`UPDATE user_mfa SET is_enabled = true, updated_at = NOW\(\)\s+WHERE user_id = \$1 AND secret = \$2 AND is_enabled = false`).
		WithArgs("u1", "SECRET").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE user_mfa SET is_enabled = true`).
		WithArgs("u1", "SECRET").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.Enable(context.Background(), "u1", "SECRET"))
	require.ErrorIs(t, repo.Enable(context.Background(), "u1", "SECRET"), repository.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMFARepo_ConsumeBackupCode_OnlyOnce(t *testing.T) {
	mock := newMock(t)
	repo := newStore(mock).MFA()

	const consume = `UPDATE user_mfa\s+SET backup_codes = array_remove\(backup_codes, \$2\), updated_at = NOW\(\)\s+WHERE user_id = \$1 AND secret IS NOT NULL AND \$2 = ANY\(backup_codes\)`
	mock.ExpectExec(consume).WithArgs("u1", "h1").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(consume).WithArgs("u1", "h1").WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.ConsumeBackupCode(context.Background(), "u1", "h1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.ConsumeBackupCode(context.Background(), "u1", "h1")
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMFARepo_Disable_Idempotent(t *testing.T) {
	mock := newMock(t)
	repo := newStore(mock).MFA()

	mock.ExpectExec(`UPDATE user_mfa\s+SET is_enabled = false, secret = NULL, backup_codes = '\{\}'`).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, repo.Disable(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
