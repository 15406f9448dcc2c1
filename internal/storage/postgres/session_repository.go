package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/meetgrid/backend/internal/core"
	"github.com/meetgrid/backend/internal/status"
)

// SessionRepository implements core.SessionRepository against the
// user_sessions table. Tokens join back to users so validation returns both
// the numeric id and the public uuid.
type SessionRepository struct {
	db *DB
}

func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, record core.SessionRecord) error {
	ctx, cancel := r.db.lease(ctx)
	defer cancel()

	var expires any
	if record.ExpiresAt > 0 {
		expires = time.Unix(record.ExpiresAt, 0)
	}
	_, err := r.db.pool.ExecContext(ctx,
		`INSERT INTO user_sessions (user_id, access_token, refresh_token, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		record.UserID, record.Token, record.Token, expires)
	return mapError(err)
}

func (r *SessionRepository) ValidateSession(ctx context.Context, token string) (core.SessionRecord, error) {
	ctx, cancel := r.db.lease(ctx)
	defer cancel()

	row := r.db.pool.QueryRowContext(ctx,
		`SELECT s.user_id, u.user_uuid, COALESCE(extract(epoch FROM s.expires_at)::bigint, 0)
		 FROM user_sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.access_token = $1`, token)

	rec := core.SessionRecord{Token: token}
	err := row.Scan(&rec.UserID, &rec.UserUUID, &rec.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SessionRecord{}, status.Unauthenticated("Invalid session token.").Err()
	}
	if err != nil {
		return core.SessionRecord{}, mapError(err)
	}
	if rec.ExpiresAt != 0 && rec.ExpiresAt < time.Now().Unix() {
		return core.SessionRecord{}, status.Unauthenticated("Session expired.").Err()
	}
	return rec, nil
}

func (r *SessionRepository) DeleteSession(ctx context.Context, token string) error {
	ctx, cancel := r.db.lease(ctx)
	defer cancel()

	res, err := r.db.pool.ExecContext(ctx,
		`DELETE FROM user_sessions WHERE access_token = $1`, token)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return status.NotFound("Session token not found.").Err()
	}
	return nil
}
