package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/prova/internal/domain/repository"
)

func TestBootstrapRepo_HasProfile(t *testing.T) {
	mock := newMock(t)
	repo := newStore(mock).Bootstrap()

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM user_profiles WHERE user_id = \$1\)`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.HasProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestBootstrapRepo_CreateAll(t *testing.T) {
	mock := newMock(t)
	repo := newStore(mock).Bootstrap()
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO user_profiles .* ON CONFLICT \(user_id\) DO NOTHING`).
		WithArgs("u1", repository.DefaultRole).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO api_usage`).WithArgs("u1", "daily").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO api_usage`).WithArgs("u1", "monthly").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	mock.ExpectExec(`INSERT INTO chat_sessions .* WHERE NOT EXISTS`).
		WithArgs(pgxmock.AnyArg(), "u1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.CreateProfile(ctx, "u1", repository.DefaultRole))
	require.NoError(t, repo.CreateUsageCounters(ctx, "u1", []string{"daily", "monthly"}))
	require.NoError(t, repo.CreateDefaultChatSession(ctx, "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBootstrapRepo_UsageRollsBackOnError(t *testing.T) {
	mock := newMock(t)
	repo := newStore(mock).Bootstrap()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO api_usage`).WithArgs("u1", "daily").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.CreateUsageCounters(context.Background(), "u1", []string{"daily", "monthly"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOAuthRepo_LinkExistingForOtherUserConflicts(t *testing.T) {
	mock := newMock(t)
	repo := newStore(mock).OAuthAccounts()

	mock.ExpectExec(`INSERT INTO oauth_accounts`).
		WithArgs("u1", "github", "42").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`FROM oauth_accounts WHERE provider = \$1 AND provider_account_id = \$2`).
		WithArgs("github", "42").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "provider", "provider_account_id", "created_at"}).
			AddRow("u2", "github", "42", time.Now()))

	err := repo.Link(context.Background(), repository.OAuthAccount{UserID: "u1", Provider: "github", ProviderAccountID: "42"})
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestOAuthRepo_GetNotFound(t *testing.T) {
	mock := newMock(t)
	repo := newStore(mock).OAuthAccounts()

	mock.ExpectQuery(`FROM oauth_accounts`).WithArgs("google", "x").WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), "google", "x")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepo_CreateDuplicateIsConflict(t *testing.T) {
	mock := newMock(t)
	repo := newStore(mock).Users()

	u := &repository.User{ID: "u1", Email: "a@x.com", PasswordHash: "h"}
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, u.Email, u.Name, u.AvatarURL, u.PasswordHash, u.EmailVerified).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

	require.ErrorIs(t, repo.Create(context.Background(), u), repository.ErrConflict)
}
