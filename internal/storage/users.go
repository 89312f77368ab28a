package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/testprep/internal/models"
)

const userColumns = `id, email, password_hash, full_name, role, active, created_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.Active, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// RegisterUser сохраняет пользователя. Занятый email даёт ErrAlreadyExists.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.RegisterUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	role := user.Role
	if role == "" {
		role = models.RoleStudent
	}
	row := s.DB.QueryRowContext(ctx, `INSERT INTO users (id, email, password_hash, full_name, role, active)
			  VALUES ($1, $2, $3, $4, $5, true)
			  RETURNING `+userColumns,
		uuid.NewString(), strings.ToLower(strings.TrimSpace(user.Email)), user.PasswordHash, user.FullName, role)
	created, err := scanUser(row)
	if err != nil {
		return nil, wrap(op, err)
	}
	return created, nil
}

// GetUserByEmail ищет пользователя по email без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}

// GetUserByID ищет пользователя по идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUserByID"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return u, nil
}
