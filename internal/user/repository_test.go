package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheli/invoice-bun/internal/database"
)

var userColumns = []string{
	"id", "email", "hashed_password", "full_name", "company_name",
	"provider", "provider_id", "is_active", "is_superuser", "created_at", "updated_at",
}

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return NewRepository(database.NewBunDB(sqlDB)), mock
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newTestRepository(t)

	userID := uuid.New()
	now := time.Now()
	fullName := "Ada Lovelace"

	mock.ExpectQuery(`INSERT INTO "users"(.+)RETURNING \*`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(userID.String(), "ada@example.com", "hash", fullName, nil, nil, nil, true, false, now, now))

	created, err := repo.Create(context.Background(), CreateParams{
		Email:          "ada@example.com",
		HashedPassword: "hash",
		FullName:       &fullName,
	})
	require.NoError(t, err)

	assert.Equal(t, userID, created.ID)
	assert.Equal(t, "ada@example.com", created.Email)
	require.NotNil(t, created.FullName)
	assert.Equal(t, fullName, *created.FullName)
	assert.True(t, created.IsActive)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`))

	_, err := repo.Create(context.Background(), CreateParams{
		Email:          "taken@example.com",
		HashedPassword: "hash",
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRepository_GetByEmail(t *testing.T) {
	repo, mock := newTestRepository(t)

	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM "users"(.+)email = 'ada@example.com'`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(userID.String(), "ada@example.com", "hash", nil, nil, "google", "109876", true, false, now, now))

	found, err := repo.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)

	assert.Equal(t, userID, found.ID)
	require.NotNil(t, found.Provider)
	assert.Equal(t, "google", *found.Provider)
}

func TestRepository_GetByEmail_NotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
