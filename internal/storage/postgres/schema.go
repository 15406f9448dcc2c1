package postgres

import "context"

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    user_uuid     TEXT        NOT NULL UNIQUE,
    username      TEXT        NOT NULL UNIQUE,
    display_name  TEXT        NOT NULL,
    email         TEXT        NOT NULL,
    password_hash TEXT        NOT NULL,
    salt          TEXT        NOT NULL,
    status        INT         NOT NULL DEFAULT 1,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    last_login_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS user_sessions (
    id            BIGSERIAL PRIMARY KEY,
    user_id       BIGINT      NOT NULL REFERENCES users(id),
    access_token  TEXT        NOT NULL UNIQUE,
    refresh_token TEXT        NOT NULL,
    expires_at    TIMESTAMPTZ,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS meetings (
    id           BIGSERIAL PRIMARY KEY,
    meeting_id   TEXT        NOT NULL UNIQUE,
    meeting_code TEXT        NOT NULL UNIQUE,
    organizer_id BIGINT      NOT NULL,
    topic        TEXT        NOT NULL,
    state        INT         NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS meeting_participants (
    meeting_id BIGINT      NOT NULL REFERENCES meetings(id),
    user_id    BIGINT      NOT NULL,
    role       INT         NOT NULL DEFAULT 0,
    joined_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (meeting_id, user_id)
);
`

// EnsureSchema creates the tables if they do not exist.
func (d *DB) EnsureSchema(ctx context.Context) error {
	if _, err := d.pool.ExecContext(ctx, schema); err != nil {
		return mapError(err)
	}
	return nil
}
