package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"repairtrack-backend/internal/models"
)

const userColumns = `id, auth_uid, name, email, role, status, COALESCE(avatar, ''), created_at, updated_at`

func (d *DatabaseClient) scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.AuthUID, &u.Name, &u.Email, &u.Role, &u.Status, &u.Avatar, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (d *DatabaseClient) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	row := d.db.QueryRowContext(ctx, `
		INSERT INTO users (auth_uid, name, email, role, status, avatar)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		u.AuthUID, u.Name, u.Email, u.Role, u.Status, u.Avatar,
	)

	created, err := d.scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

func (d *DatabaseClient) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)

	u, err := d.scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (d *DatabaseClient) ListUsers(ctx context.Context, role string) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	args := []any{}
	if role != "" {
		query = `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at DESC`
		args = append(args, role)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := d.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return users, nil
}

func (d *DatabaseClient) UpdateUser(ctx context.Context, u *models.User) (*models.User, error) {
	row := d.db.QueryRowContext(ctx, `
		UPDATE users
		SET name = $2, email = $3, role = $4, status = $5, avatar = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		u.ID, u.Name, u.Email, u.Role, u.Status, u.Avatar,
	)

	updated, err := d.scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", u.ID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return updated, nil
}

func (d *DatabaseClient) DeleteUser(ctx context.Context, userID int64) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", userID, models.ErrNotFound)
	}
	return nil
}

// Resolve implements identity.Resolver: the JWT subject is looked up in the
// users table to learn the internal id and role the request acts as.
func (d *DatabaseClient) Resolve(ctx context.Context, authUID uuid.UUID) (models.Caller, error) {
	var c models.Caller
	var status string
	err := d.db.QueryRowContext(ctx, `
		SELECT id, auth_uid, name, role, status FROM users WHERE auth_uid = $1
	`, authUID).Scan(&c.UserID, &c.AuthUID, &c.Name, &c.Role, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Caller{}, models.ErrNotFound
	}
	if err != nil {
		return models.Caller{}, fmt.Errorf("failed to resolve user: %w", err)
	}
	if status != models.UserStatusActive {
		return models.Caller{}, models.ErrForbidden
	}
	return c, nil
}
