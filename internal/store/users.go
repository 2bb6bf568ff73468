package store

import (
	"context"
	"time"

	"inventory-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, name, email, password_hash, role, is_active, last_login, created_at, updated_at`

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :name, :email, :password_hash, :role, :is_active, :last_login, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, s.ext(ctx), query, u); err != nil {
		return writeErr(err, "create user")
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := sqlx.GetContext(ctx, s.ext(ctx), &u, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	return &u, nil
}

// GetUserByEmail expects an already lower-cased email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := sqlx.GetContext(ctx, s.ext(ctx), &u, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	return &u, nil
}

func (s *Store) TouchLastLogin(ctx context.Context, id string) error {
	res, err := s.ext(ctx).ExecContext(ctx,
		"UPDATE users SET last_login = NOW(), updated_at = NOW() WHERE id = $1", id)
	if err != nil {
		return lookupErr(err, "User")
	}
	return affectedOrNotFound(res, "User")
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := sqlx.SelectContext(ctx, s.ext(ctx), &users, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	return users, err
}
