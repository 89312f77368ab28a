package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/testprep/internal/models"
)

var userCols = []string{"id", "email", "password_hash", "full_name", "role", "active", "created_at"}

func TestRegisterUser(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s, mock := setupMock(t)
		now := time.Now()

		mock.ExpectQuery(q("INSERT INTO users")).
			WithArgs(sqlmock.AnyArg(), "anna@example.com", "hash", "Anna", models.RoleStudent).
			WillReturnRows(sqlmock.NewRows(userCols).
				AddRow(userID, "anna@example.com", "hash", "Anna", models.RoleStudent, true, now))

		u, err := s.RegisterUser(context.Background(), models.User{Email: "  Anna@Example.com ", PasswordHash: "hash", FullName: "Anna"})
		require.NoError(t, err)
		assert.Equal(t, userID, u.ID)
		assert.Equal(t, models.RoleStudent, u.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		s, mock := setupMock(t)
		mock.ExpectQuery(q("INSERT INTO users")).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		_, err := s.RegisterUser(context.Background(), models.User{Email: "anna@example.com", PasswordHash: "hash"})
		assert.ErrorIs(t, err, models.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetUserByEmail(t *testing.T) {
	s, mock := setupMock(t)
	mock.ExpectQuery(q("FROM users WHERE email = $1")).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetUserByEmail(context.Background(), "Nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByID(t *testing.T) {
	s, mock := setupMock(t)
	now := time.Now()
	mock.ExpectQuery(q("FROM users WHERE id = $1")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(userID, "admin@example.com", "hash", "Admin", models.RoleAdmin, true, now))

	u, err := s.GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
