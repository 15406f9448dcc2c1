package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/meetgrid/backend/internal/core"
	"github.com/meetgrid/backend/internal/status"
)

// UserRepository implements core.UserRepository against the users table.
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, data core.UserData) error {
	ctx, cancel := r.db.lease(ctx)
	defer cancel()

	displayName := data.DisplayName
	if displayName == "" {
		displayName = data.UserName
	}
	_, err := r.db.pool.ExecContext(ctx,
		`INSERT INTO users (user_uuid, username, display_name, email, password_hash, salt, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 1, to_timestamp($7))`,
		data.UserID, data.UserName, displayName, data.Email,
		data.PasswordHash, data.Salt, data.CreatedAt)
	if err != nil {
		if status.CodeOf(mapError(err)) == status.CodeAlreadyExists {
			return status.AlreadyExists("User name already exists.").Err()
		}
		return mapError(err)
	}
	return nil
}

const userColumns = `id, user_uuid, username, display_name, email, password_hash, salt,
	extract(epoch FROM created_at)::bigint,
	COALESCE(extract(epoch FROM last_login_at)::bigint, 0)`

func (r *UserRepository) scanUser(row *sql.Row) (core.UserData, error) {
	var data core.UserData
	err := row.Scan(&data.NumericID, &data.UserID, &data.UserName, &data.DisplayName,
		&data.Email, &data.PasswordHash, &data.Salt, &data.CreatedAt, &data.LastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserData{}, status.NotFound("User not found.").Err()
	}
	if err != nil {
		return core.UserData{}, mapError(err)
	}
	return data, nil
}

func (r *UserRepository) FindByUserName(ctx context.Context, userName string) (core.UserData, error) {
	ctx, cancel := r.db.lease(ctx)
	defer cancel()

	row := r.db.pool.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, userName)
	return r.scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, userID string) (core.UserData, error) {
	ctx, cancel := r.db.lease(ctx)
	defer cancel()

	row := r.db.pool.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_uuid = $1`, userID)
	return r.scanUser(row)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID string, lastLogin int64) error {
	ctx, cancel := r.db.lease(ctx)
	defer cancel()

	res, err := r.db.pool.ExecContext(ctx,
		`UPDATE users SET last_login_at = to_timestamp($1) WHERE user_uuid = $2`,
		lastLogin, userID)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return status.NotFound("User not found.").Err()
	}
	return nil
}
