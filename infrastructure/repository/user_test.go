package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/meta-insights-proxy/infrastructure/database/postgres"
)

var userColumns = []string{"id", "email", "metadata", "created_at", "updated_at"}

func newMockRepository(t *testing.T) (UserRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewUserRepository(&postgres.Connection{DB: db}), mock
}

func TestUserRepository_GetUserByID(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, metadata, created_at, updated_at FROM users WHERE id = $1")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			"user-1",
			"ana@example.com",
			[]byte(`{"meta_access_token":"tok","meta_token_expires_at":"2025-05-01T00:00:00Z","meta_user_id":"99"}`),
			now,
			now,
		))

	user, err := repo.GetUserByID(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, user)

	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "tok", user.Metadata.MetaAccessToken)
	assert.Equal(t, "99", user.Metadata.MetaUserID)
	require.NotNil(t, user.Metadata.MetaTokenExpiresAt)
	assert.True(t, user.HasMetaConnection(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetUserByID_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userColumns))

	user, err := repo.GetUserByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_GetUserByID_QueryError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("user-1").
		WillReturnError(errors.New("conexão perdida"))

	_, err := repo.GetUserByID(context.Background(), "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conexão perdida")
}

func TestUserRepository_UpdateUserMetadata_MergesJSONB(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (id,metadata) VALUES ($1,$2) ON CONFLICT (id) DO UPDATE SET metadata = users.metadata || EXCLUDED.metadata")).
		WithArgs("user-1", `{"meta_user_id":"99"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateUserMetadata(context.Background(), "user-1", map[string]any{"meta_user_id": "99"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ListUsersWithExpiringMetaToken(t *testing.T) {
	repo, mock := newMockRepository(t)
	before := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("(metadata->>'meta_token_expires_at')::timestamptz < $1")).
		WithArgs(before).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("a", nil, []byte(`{"meta_access_token":"tok-a"}`), before, before).
			AddRow("b", "b@example.com", []byte(`{"meta_access_token":"tok-b"}`), before, before))

	users, err := repo.ListUsersWithExpiringMetaToken(context.Background(), before)
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, "a", users[0].ID)
	assert.Empty(t, users[0].Email)
	assert.Equal(t, "tok-b", users[1].Metadata.MetaAccessToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}
