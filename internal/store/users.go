package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/lekarna/internal/model"
)

const userColumns = `id, username, password_hash, role, created_at, deleted_at`

// CreateUser creates a new user.
func CreateUser(ctx context.Context, db sqlx.ExtContext, username, passwordHash, role string) (*model.User, error) {
	var id int64
	err := get(ctx, db, &id,
		`INSERT INTO users (username, password_hash, role) VALUES (?, ?, ?) RETURNING id`,
		username, passwordHash, role,
	)
	if err != nil {
		return nil, classify("creating user", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db sqlx.ExtContext, id int64) (*model.User, error) {
	u := &model.User{}
	err := get(ctx, db, u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting user", err)
	}
	return u, nil
}

// GetUserByUsername returns a user by username (including soft-deleted for auth checks).
// When the name was reused, the active account wins.
func GetUserByUsername(ctx context.Context, db sqlx.ExtContext, username string) (*model.User, error) {
	u := &model.User{}
	err := get(ctx, db, u,
		`SELECT `+userColumns+` FROM users WHERE username = ?
		 ORDER BY CASE WHEN deleted_at IS NULL THEN 0 ELSE 1 END, id DESC
		 LIMIT 1`, username,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("getting user by username", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db sqlx.ExtContext) ([]model.User, error) {
	users := []model.User{}
	err := selectAll(ctx, db, &users,
		`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, classify("listing users", err)
	}
	return users, nil
}

// UpdateUser updates a user's role.
func UpdateUser(ctx context.Context, db sqlx.ExtContext, id int64, role string) error {
	n, err := execCount(ctx, db,
		`UPDATE users SET role = ? WHERE id = ? AND deleted_at IS NULL`,
		role, id,
	)
	if err != nil {
		return classify("updating user", err)
	}
	if n == 0 {
		return fmt.Errorf("updating user %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db sqlx.ExtContext, id int64, passwordHash string) error {
	n, err := execCount(ctx, db,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return classify("updating user password", err)
	}
	if n == 0 {
		return fmt.Errorf("updating password of user %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// DeleteUser soft-deletes a user.
func DeleteUser(ctx context.Context, db sqlx.ExtContext, id int64) error {
	n, err := execCount(ctx, db,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return classify("deleting user", err)
	}
	if n == 0 {
		return fmt.Errorf("deleting user %d: %w", id, model.ErrNotFound)
	}
	return nil
}

// CountUsers returns the number of active users.
func CountUsers(ctx context.Context, db sqlx.ExtContext) (int, error) {
	var n int
	if err := get(ctx, db, &n, `SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`); err != nil {
		return 0, classify("counting users", err)
	}
	return n, nil
}
